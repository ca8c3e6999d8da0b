package service

import "testing"

func TestNormalizePageText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"collapses whitespace", "  Hello \n\n\t world  ", "Hello world"},
		{"folds ligatures", "ef\ufb01cient", "efficient"},
		{"drops control characters", "Head\x00line\x07", "Headline"},
		{"drops soft hyphen", "news\u00adpaper", "newspaper"},
		{"full-width digits", "\uff12\uff10\uff12\uff16", "2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePageText(tt.in); got != tt.want {
				t.Fatalf("NormalizePageText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	got, truncated := TruncateRunes("héllo wörld", 5)
	if got != "héllo" || !truncated {
		t.Fatalf("unexpected result %q %v", got, truncated)
	}

	got, truncated = TruncateRunes("short", 10)
	if got != "short" || truncated {
		t.Fatalf("unexpected result %q %v", got, truncated)
	}

	got, truncated = TruncateRunes("unlimited", 0)
	if got != "unlimited" || truncated {
		t.Fatalf("unexpected result %q %v", got, truncated)
	}
}

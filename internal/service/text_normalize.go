package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizePageText folds compatibility characters (ligatures, full-width forms), drops control
// characters and collapses every run of whitespace into a single space.
func NormalizePageText(text string) string {
	if text == "" {
		return ""
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case r == 0x00, unicode.IsControl(r), r == utf8.RuneError:
			continue
		case unicode.Is(unicode.Cf, r):
			// soft hyphens, zero-width joiners and similar format characters
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// TruncateRunes shortens s to at most limit runes. A limit of zero or less keeps s intact.
func TruncateRunes(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i], true
		}
		count++
	}
	return s, false
}

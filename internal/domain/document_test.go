package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"pdf extension", "morning-edition.pdf", "morning-edition"},
		{"upper case extension", "Gazette.PDF", "Gazette"},
		{"path is stripped", "/tmp/uploads/daily.pdf", "daily"},
		{"other extension kept", "notes.txt", "notes.txt"},
		{"only extension", ".pdf", "Untitled"},
		{"empty", "", "Untitled"},
		{"whitespace", "  weekly times.pdf ", "weekly times"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromFilename(tt.filename); got != tt.want {
				t.Fatalf("TitleFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	upload := Upload{Filename: "herald.pdf", ContentType: PDFContentType, Data: []byte("%PDF-1.4")}

	doc := NewDocument(upload, now)

	if doc.Title != "herald" {
		t.Fatalf("expected title herald, got %s", doc.Title)
	}
	if doc.Size != 8 {
		t.Fatalf("expected size 8, got %d", doc.Size)
	}
	if !doc.SelectedAt.Equal(now) {
		t.Fatalf("expected selected at %v, got %v", now, doc.SelectedAt)
	}
	if doc.ExtractedText != "" || doc.StorageLocator != "" {
		t.Fatalf("expected text and locator to be empty on creation")
	}
}

func TestUploadSize(t *testing.T) {
	tests := []struct {
		name   string
		upload Upload
		want   int64
	}{
		{"read fully", Upload{Data: make([]byte, 8)}, 8},
		{"declared matches", Upload{Data: make([]byte, 8), DeclaredSize: 8}, 8},
		{"read cut short", Upload{Data: make([]byte, 11), DeclaredSize: 50_000_000}, 50_000_000},
		{"declared too small", Upload{Data: make([]byte, 8), DeclaredSize: 3}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.upload.Size(); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPlaybackSettingsValidate(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		settings PlaybackSettings
		field    string
	}{
		{"empty update", PlaybackSettings{}, ""},
		{"valid values", PlaybackSettings{Speed: f(1.5), Pitch: f(0.5), Volume: f(0)}, ""},
		{"speed too low", PlaybackSettings{Speed: f(0.4)}, "speed"},
		{"speed too high", PlaybackSettings{Speed: f(2.1)}, "speed"},
		{"pitch too high", PlaybackSettings{Pitch: f(3)}, "pitch"},
		{"volume negative", PlaybackSettings{Volume: f(-0.1)}, "volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestDefaultPlaybackState(t *testing.T) {
	state := DefaultPlaybackState()
	if state.IsPlaying || state.Speed != 1.0 || state.Pitch != 1.0 || state.Volume != 1.0 {
		t.Fatalf("unexpected default playback state: %+v", state)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{fmt.Errorf("%w: text/plain", ErrFileTypeRejected), KindFileTypeRejected},
		{fmt.Errorf("%w: 15 MB", ErrFileTooLarge), KindFileTooLarge},
		{fmt.Errorf("%w: bad xref", ErrExtractionFailed), KindExtractionFailed},
		{fmt.Errorf("%w: 500", ErrUploadFailed), KindUploadFailed},
		{fmt.Errorf("%w: conflict", ErrRecordInsertFailed), KindRecordInsertFailed},
		{fmt.Errorf("%w: %w", ErrSynthesisFailed, ErrSecretLookupFailed), KindSecretLookupFailed},
		{fmt.Errorf("%w: 401", ErrSynthesisFailed), KindSynthesisFailed},
		{fmt.Errorf("boom"), KindUnknown},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Fatalf("KindOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestReaderStateHasDocument(t *testing.T) {
	for _, s := range []ReaderState{StateReady, StatePlaying, StatePaused} {
		if !s.HasDocument() {
			t.Fatalf("expected %s to have a document", s)
		}
	}
	for _, s := range []ReaderState{StateEmpty, StateExtracting, StatePersisting} {
		if s.HasDocument() {
			t.Fatalf("expected %s to have no document", s)
		}
	}
}

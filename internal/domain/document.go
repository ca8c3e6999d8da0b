package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// PDFContentType is the only MIME type accepted for newspaper uploads.
const PDFContentType = "application/pdf"

// Upload is a file handed to the reader by a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	// DeclaredSize is the size the client reported. Data may stop short of it when the
	// transport only reads enough to prove a file is over the limit.
	DeclaredSize int64
}

// Size returns the upload size in bytes: the declared size when it exceeds what was read.
func (u Upload) Size() int64 {
	if n := int64(len(u.Data)); n >= u.DeclaredSize {
		return n
	}
	return u.DeclaredSize
}

// Document is the newspaper currently selected in a reader session.
type Document struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`

	// RawBytes is the original PDF payload. It is never serialized.
	RawBytes []byte `json:"-"`

	ExtractedText  string `json:"extracted_text"`
	PageCount      int    `json:"page_count"`
	PagesRead      int    `json:"pages_read"`
	Truncated      bool   `json:"truncated"`
	StorageLocator string `json:"storage_locator,omitempty"`
	RecordID       string `json:"record_id,omitempty"`

	SelectedAt time.Time `json:"selected_at"`
}

// NewDocument creates a document for an accepted upload.
func NewDocument(upload Upload, now time.Time) *Document {
	return &Document{
		Title:      TitleFromFilename(upload.Filename),
		Filename:   upload.Filename,
		Size:       upload.Size(),
		RawBytes:   upload.Data,
		SelectedAt: now,
	}
}

// TitleFromFilename derives a display title from an uploaded file name.
func TitleFromFilename(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		return "Untitled"
	}
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimSpace(base)
	if base == "" {
		return "Untitled"
	}
	return base
}

// Extraction is the result of reading the text layer of a PDF.
type Extraction struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
	PagesRead int    `json:"pages_read"`
	// Truncated is set when the page cap stopped extraction early.
	Truncated bool `json:"truncated"`
	// Partial is set when extraction was aborted and Text holds only the pages read so far.
	Partial bool `json:"partial"`
}

// NewspaperRecord is a row of the newspapers collection.
type NewspaperRecord struct {
	ID            string    `json:"id,omitempty"`
	Title         string    `json:"title"`
	ExtractedText string    `json:"extracted_text"`
	PDFURL        string    `json:"pdf_url"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// StoredNewspaper is what the persistence adapter reports back after a successful save.
type StoredNewspaper struct {
	RecordID       string `json:"record_id"`
	StorageLocator string `json:"storage_locator"`
	TextTruncated  bool   `json:"text_truncated"`
}

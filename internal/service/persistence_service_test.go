package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"newspaper-reader/internal/domain"
)

type MockObjectStorage struct {
	keys        []string
	contentType string
	body        []byte
	err         error
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	m.contentType = contentType
	m.body, _ = io.ReadAll(file)
	return "newspapers/" + key, nil
}

type MockNewspaperRepository struct {
	records []*domain.NewspaperRecord
	err     error
}

func (m *MockNewspaperRepository) Insert(ctx context.Context, record *domain.NewspaperRecord) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.records = append(m.records, record)
	return "rec-1", nil
}

func (m *MockNewspaperRepository) GetByID(ctx context.Context, id string) (*domain.NewspaperRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNewspaperNotFound
}

func (m *MockNewspaperRepository) List(ctx context.Context, limit int) ([]*domain.NewspaperRecord, error) {
	return m.records, nil
}

func testDocument() *domain.Document {
	return &domain.Document{
		Title:         "Morning Herald",
		RawBytes:      []byte("%PDF-1.7 herald"),
		ExtractedText: "Headline story",
	}
}

func TestPersistenceService_Persist(t *testing.T) {
	storage := &MockObjectStorage{}
	records := &MockNewspaperRepository{}
	svc := NewPersistenceService(storage, records, 0, NewMockLogger())

	stored, err := svc.Persist(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(storage.keys) != 1 || !strings.HasSuffix(storage.keys[0], ".pdf") {
		t.Fatalf("expected one uuid.pdf key, got %v", storage.keys)
	}
	if len(storage.keys[0]) != len("00000000-0000-0000-0000-000000000000.pdf") {
		t.Fatalf("expected uuid key, got %s", storage.keys[0])
	}
	if storage.contentType != domain.PDFContentType {
		t.Fatalf("unexpected content type %s", storage.contentType)
	}
	if string(storage.body) != "%PDF-1.7 herald" {
		t.Fatalf("unexpected uploaded body %q", storage.body)
	}

	if len(records.records) != 1 {
		t.Fatalf("expected one record, got %d", len(records.records))
	}
	rec := records.records[0]
	if rec.Title != "Morning Herald" || rec.ExtractedText != "Headline story" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.PDFURL != stored.StorageLocator || stored.StorageLocator != "newspapers/"+storage.keys[0] {
		t.Fatalf("expected record to point at the upload, got %s / %s", rec.PDFURL, stored.StorageLocator)
	}
	if stored.RecordID != "rec-1" {
		t.Fatalf("unexpected record id %s", stored.RecordID)
	}
}

func TestPersistenceService_TruncatesRecordText(t *testing.T) {
	records := &MockNewspaperRepository{}
	svc := NewPersistenceService(nil, records, 8, NewMockLogger())

	stored, err := svc.Persist(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := records.records[0].ExtractedText; got != "Headline" {
		t.Fatalf("expected truncated text, got %q", got)
	}
	if !stored.TextTruncated {
		t.Fatal("expected TextTruncated to be reported")
	}
	if stored.StorageLocator != "" {
		t.Fatalf("expected no locator without storage, got %s", stored.StorageLocator)
	}
}

func TestPersistenceService_UploadFailure(t *testing.T) {
	records := &MockNewspaperRepository{}
	svc := NewPersistenceService(&MockObjectStorage{err: errors.New("bucket missing")}, records, 0, NewMockLogger())

	_, err := svc.Persist(context.Background(), testDocument())
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if len(records.records) != 0 {
		t.Fatal("expected no record insert after a failed upload")
	}
}

func TestPersistenceService_InsertFailure(t *testing.T) {
	storage := &MockObjectStorage{}
	svc := NewPersistenceService(storage, &MockNewspaperRepository{err: errors.New("permission denied")}, 0, NewMockLogger())

	_, err := svc.Persist(context.Background(), testDocument())
	if !errors.Is(err, domain.ErrRecordInsertFailed) {
		t.Fatalf("expected ErrRecordInsertFailed, got %v", err)
	}
	if len(storage.keys) != 1 {
		t.Fatal("expected the upload to have happened")
	}
}

func TestPersistenceService_ListWithoutRecords(t *testing.T) {
	svc := NewPersistenceService(nil, nil, 0, NewMockLogger())

	if _, err := svc.List(context.Background(), 10); !errors.Is(err, domain.ErrPersistenceOff) {
		t.Fatalf("expected ErrPersistenceOff, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "x"); !errors.Is(err, domain.ErrPersistenceOff) {
		t.Fatalf("expected ErrPersistenceOff, got %v", err)
	}
}

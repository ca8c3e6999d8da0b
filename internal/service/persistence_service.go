package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"newspaper-reader/internal/domain"
)

// PersistenceService uploads the raw PDF to object storage and records its metadata.
// Either dependency may be nil, in which case that half is skipped.
type PersistenceService struct {
	storage   domain.ObjectStorage
	records   domain.NewspaperRepository
	textLimit int
	logger    domain.Logger

	newKey func() string
}

func NewPersistenceService(
	storage domain.ObjectStorage,
	records domain.NewspaperRepository,
	textLimit int,
	logger domain.Logger,
) *PersistenceService {
	return &PersistenceService{
		storage:   storage,
		records:   records,
		textLimit: textLimit,
		logger:    logger,
		newKey:    func() string { return uuid.NewString() + ".pdf" },
	}
}

// Persist uploads first and inserts the record second. An insert failure after a successful upload
// leaves the object in place.
func (s *PersistenceService) Persist(ctx context.Context, doc *domain.Document) (*domain.StoredNewspaper, error) {
	if doc == nil {
		return nil, domain.ErrNoDocument
	}
	stored := &domain.StoredNewspaper{}

	if s.storage != nil {
		key := s.newKey()
		locator, err := s.storage.Upload(ctx, key, bytes.NewReader(doc.RawBytes), int64(len(doc.RawBytes)), domain.PDFContentType)
		if err != nil {
			s.logger.Error("Failed to upload newspaper", err, "key", key, "size", len(doc.RawBytes))
			return nil, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
		}
		stored.StorageLocator = locator
		s.logger.Info("Newspaper uploaded", "locator", locator, "size", len(doc.RawBytes))
	}

	if s.records != nil {
		text, truncated := TruncateRunes(doc.ExtractedText, s.textLimit)
		record := &domain.NewspaperRecord{
			Title:         doc.Title,
			ExtractedText: text,
			PDFURL:        stored.StorageLocator,
		}
		id, err := s.records.Insert(ctx, record)
		if err != nil {
			s.logger.Error("Failed to insert newspaper record", err, "title", doc.Title, "locator", stored.StorageLocator)
			return nil, fmt.Errorf("%w: %w", domain.ErrRecordInsertFailed, err)
		}
		stored.RecordID = id
		stored.TextTruncated = truncated
		s.logger.Info("Newspaper record inserted", "id", id, "text_truncated", truncated)
	}

	return stored, nil
}

// List returns the most recent stored newspapers.
func (s *PersistenceService) List(ctx context.Context, limit int) ([]*domain.NewspaperRecord, error) {
	if s.records == nil {
		return nil, domain.ErrPersistenceOff
	}
	return s.records.List(ctx, limit)
}

// Get returns one stored newspaper by id.
func (s *PersistenceService) Get(ctx context.Context, id string) (*domain.NewspaperRecord, error) {
	if s.records == nil {
		return nil, domain.ErrPersistenceOff
	}
	return s.records.GetByID(ctx, id)
}

var _ domain.Persister = (*PersistenceService)(nil)

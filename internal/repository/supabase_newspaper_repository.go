package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"newspaper-reader/internal/domain"
)

const newspapersTable = "newspapers"

// SupabaseNewspaperRepository implements the domain.NewspaperRepository interface
type SupabaseNewspaperRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseNewspaperRepository creates a new Supabase newspaper repository
func NewSupabaseNewspaperRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.NewspaperRepository {
	return &SupabaseNewspaperRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

type newspaperRow struct {
	// id is a bigint or a uuid depending on how the table was created
	ID            interface{} `json:"id"`
	Title         string      `json:"title"`
	ExtractedText string      `json:"extracted_text"`
	PDFURL        *string     `json:"pdf_url"`
	CreatedAt     string      `json:"created_at,omitempty"`
}

// Insert adds a record and returns the id assigned by the database.
func (r *SupabaseNewspaperRepository) Insert(ctx context.Context, record *domain.NewspaperRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return "", fmt.Errorf("supabase client not initialized")
	}

	// Postgres rejects NUL bytes in text columns (22P05).
	row := map[string]interface{}{
		"title":          strings.ReplaceAll(record.Title, "\x00", ""),
		"extracted_text": strings.ReplaceAll(record.ExtractedText, "\x00", ""),
		"pdf_url":        nullableString(record.PDFURL),
	}

	data, _, err := client.From(newspapersTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return "", fmt.Errorf("failed to insert newspaper: %w", err)
	}

	rows, err := decodeNewspaperRows(data)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].id() == "" {
		return "", fmt.Errorf("insert returned no id")
	}

	id := rows[0].id()
	r.logger.Debug("Newspaper row inserted", "id", id, "title", record.Title)
	return id, nil
}

// GetByID returns a single record.
func (r *SupabaseNewspaperRepository) GetByID(ctx context.Context, id string) (*domain.NewspaperRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From(newspapersTable).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get newspaper: %w", err)
	}

	rows, err := decodeNewspaperRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNewspaperNotFound
	}
	return rows[0].toDomain(), nil
}

// List returns the newest records first.
func (r *SupabaseNewspaperRepository) List(ctx context.Context, limit int) ([]*domain.NewspaperRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	q := client.From(newspapersTable).
		Select("id,title,extracted_text,pdf_url,created_at", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		q = q.Limit(limit, "")
	}

	data, _, err := q.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list newspapers: %w", err)
	}

	rows, err := decodeNewspaperRows(data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.NewspaperRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func decodeNewspaperRows(data []byte) ([]newspaperRow, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []newspaperRow
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return rows, nil
}

func (row newspaperRow) toDomain() *domain.NewspaperRecord {
	rec := &domain.NewspaperRecord{
		ID:            row.id(),
		Title:         row.Title,
		ExtractedText: row.ExtractedText,
	}
	if row.PDFURL != nil {
		rec.PDFURL = *row.PDFURL
	}
	if row.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			rec.CreatedAt = t
		}
	}
	return rec
}

func (row newspaperRow) id() string {
	switch v := row.ID.(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"newspaper-reader/internal/domain"
)

// OpenPostgres opens and pings a lib/pq connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping failed: %w", describePQError(err))
	}
	return db, nil
}

// PostgresNewspaperRepository implements domain.NewspaperRepository on database/sql.
type PostgresNewspaperRepository struct {
	db     *sql.DB
	logger domain.Logger
}

func NewPostgresNewspaperRepository(db *sql.DB, logger domain.Logger) domain.NewspaperRepository {
	return &PostgresNewspaperRepository{db: db, logger: logger}
}

func (r *PostgresNewspaperRepository) Insert(ctx context.Context, record *domain.NewspaperRecord) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO newspapers (title, extracted_text, pdf_url)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id::text
	`, strings.ReplaceAll(record.Title, "\x00", ""), strings.ReplaceAll(record.ExtractedText, "\x00", ""), record.PDFURL).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to insert newspaper: %w", describePQError(err))
	}
	return id, nil
}

func (r *PostgresNewspaperRepository) GetByID(ctx context.Context, id string) (*domain.NewspaperRecord, error) {
	var rec domain.NewspaperRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id::text, title, extracted_text, COALESCE(pdf_url, ''), created_at
		FROM newspapers
		WHERE id::text = $1
	`, id).Scan(&rec.ID, &rec.Title, &rec.ExtractedText, &rec.PDFURL, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNewspaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get newspaper: %w", describePQError(err))
	}
	return &rec, nil
}

func (r *PostgresNewspaperRepository) List(ctx context.Context, limit int) ([]*domain.NewspaperRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id::text, title, extracted_text, COALESCE(pdf_url, ''), created_at
		FROM newspapers
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list newspapers: %w", describePQError(err))
	}
	defer rows.Close()

	var out []*domain.NewspaperRecord
	for rows.Next() {
		var rec domain.NewspaperRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.ExtractedText, &rec.PDFURL, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PostgresSecretRepository implements domain.SecretRepository on database/sql.
type PostgresSecretRepository struct {
	db *sql.DB
}

func NewPostgresSecretRepository(db *sql.DB) domain.SecretRepository {
	return &PostgresSecretRepository{db: db}
}

func (r *PostgresSecretRepository) GetSecret(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM secrets WHERE name = $1`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("secret %s not found", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret %s: %w", name, describePQError(err))
	}
	return value, nil
}

// describePQError adds the SQLSTATE condition name to postgres errors.
func describePQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s (%s): %w", pqErr.Code.Name(), pqErr.Code, err)
	}
	return err
}

package domain

import (
	"context"
	"io"

	"github.com/supabase-community/supabase-go"
)

// TextExtractor turns a PDF payload into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, pdf []byte) (*Extraction, error)
}

// ObjectStorage stores raw uploaded files and returns an opaque locator.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string) (string, error)
}

// NewspaperRepository defines persistence operations for newspaper records.
type NewspaperRepository interface {
	Insert(ctx context.Context, record *NewspaperRecord) (string, error)
	GetByID(ctx context.Context, id string) (*NewspaperRecord, error)
	List(ctx context.Context, limit int) ([]*NewspaperRecord, error)
}

// SecretRepository looks up named secrets kept in the remote data store.
type SecretRepository interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// Persister saves a document's file and metadata remotely.
type Persister interface {
	Persist(ctx context.Context, doc *Document) (*StoredNewspaper, error)
}

// Synthesizer converts text to encoded audio through a voice API.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*Audio, error)
}

// SynthesisRequest carries the text and the prosody hints for one synthesis call.
type SynthesisRequest struct {
	Text  string
	Speed float64
	Pitch float64
}

// Audio is an encoded audio clip.
type Audio struct {
	Data        []byte
	ContentType string
}

// SupabaseClient wraps the Supabase SDK client.
type SupabaseClient interface {
	Initialize() error
	ValidateToken(token string) (*SupabaseUser, error)

	DB() *supabase.Client
}

// SupabaseUser represents a user from Supabase Auth
type SupabaseUser struct {
	ID    string
	Email string
}

// AuthService validates bearer tokens.
type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetSupabaseURL() string
	GetSupabaseKey() string
}

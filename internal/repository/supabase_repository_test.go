package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"

	"newspaper-reader/internal/domain"
)

type testSupabaseClient struct {
	client *supabase.Client
}

func (c *testSupabaseClient) Initialize() error { return nil }

func (c *testSupabaseClient) ValidateToken(string) (*domain.SupabaseUser, error) { return nil, nil }

func (c *testSupabaseClient) DB() *supabase.Client { return c.client }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Error(string, error, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})         {}

func newTestClient(t *testing.T, handler http.HandlerFunc) domain.SupabaseClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := supabase.NewClient(server.URL, "anon-key", &supabase.ClientOptions{})
	require.NoError(t, err)
	return &testSupabaseClient{client: client}
}

func TestSupabaseNewspaperRepository_Insert(t *testing.T) {
	var body map[string]interface{}
	var method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/newspapers") {
			http.NotFound(w, r)
			return
		}
		method = r.Method
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":42,"title":"Morning Herald","extracted_text":"Headline","pdf_url":"newspapers/a.pdf","created_at":"2026-01-01T08:00:00.123456+00:00"}]`))
	})

	repo := NewSupabaseNewspaperRepository(client, nopLogger{})
	id, err := repo.Insert(context.Background(), &domain.NewspaperRecord{
		Title:         "Morning Herald",
		ExtractedText: "Head\x00line",
		PDFURL:        "newspapers/a.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "Headline", body["extracted_text"])
	assert.Equal(t, "newspapers/a.pdf", body["pdf_url"])
}

func TestSupabaseNewspaperRepository_GetByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.RawQuery, "missing") {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":"7d3f0a52-2f1e-4d8e-8a3b-1c2d3e4f5a6b","title":"Evening Post","extracted_text":"Weather","pdf_url":null,"created_at":"2026-02-03T18:30:00+00:00"}]`))
	})

	repo := NewSupabaseNewspaperRepository(client, nopLogger{})
	rec, err := repo.GetByID(context.Background(), "7d3f0a52-2f1e-4d8e-8a3b-1c2d3e4f5a6b")
	require.NoError(t, err)
	assert.Equal(t, "7d3f0a52-2f1e-4d8e-8a3b-1c2d3e4f5a6b", rec.ID)
	assert.Equal(t, "Evening Post", rec.Title)
	assert.Empty(t, rec.PDFURL)
	assert.Equal(t, 2026, rec.CreatedAt.Year())

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNewspaperNotFound)
}

func TestSupabaseNewspaperRepository_List(t *testing.T) {
	var query string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":2,"title":"B","extracted_text":"","pdf_url":null},{"id":1,"title":"A","extracted_text":"","pdf_url":"x"}]`))
	})

	repo := NewSupabaseNewspaperRepository(client, nopLogger{})
	recs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2", recs[0].ID)
	assert.Equal(t, "x", recs[1].PDFURL)
	assert.Contains(t, query, "order=created_at.desc")
	assert.Contains(t, query, "limit=10")
}

func TestSupabaseSecretRepository_GetSecret(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, "/secrets") {
			http.NotFound(w, r)
			return
		}
		if strings.Contains(r.URL.RawQuery, "ELEVEN_LABS_API_KEY") {
			_, _ = w.Write([]byte(`[{"value":"xi-secret"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	repo := NewSupabaseSecretRepository(client, nopLogger{})
	value, err := repo.GetSecret(context.Background(), "ELEVEN_LABS_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "xi-secret", value)

	_, err = repo.GetSecret(context.Background(), "OTHER")
	assert.Error(t, err)
}

func TestRepositories_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewSupabaseNewspaperRepository(&testSupabaseClient{}, nopLogger{})
	_, err := repo.Insert(ctx, &domain.NewspaperRecord{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSupabaseRepositories_NotInitialized(t *testing.T) {
	repo := NewSupabaseNewspaperRepository(&testSupabaseClient{}, nopLogger{})
	_, err := repo.Insert(context.Background(), &domain.NewspaperRecord{Title: "x"})
	assert.Error(t, err)

	secrets := NewSupabaseSecretRepository(&testSupabaseClient{}, nopLogger{})
	_, err = secrets.GetSecret(context.Background(), "ELEVEN_LABS_API_KEY")
	assert.Error(t, err)
}

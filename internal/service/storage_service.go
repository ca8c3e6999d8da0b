package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newspaper-reader/internal/domain"
)

// SupabaseStorage uploads objects through the Supabase Storage REST API.
type SupabaseStorage struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

func NewStorageService(
	baseURL string,
	apiKey string,
	bucket string,
) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Upload stores the object under bucket/key and returns that path as the locator.
func (s *SupabaseStorage) Upload(
	ctx context.Context,
	key string,
	file io.Reader,
	size int64,
	contentType string,
) (string, error) {
	locator := s.bucket + "/" + key

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/storage/v1/object/"+locator,
		file,
	)
	if err != nil {
		return "", fmt.Errorf("failed to build storage request: %w", err)
	}
	if size > 0 {
		req.ContentLength = size
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("storage upload failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return locator, nil
}

var _ domain.ObjectStorage = (*SupabaseStorage)(nil)

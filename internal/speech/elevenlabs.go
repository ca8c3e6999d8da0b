package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"newspaper-reader/internal/domain"
)

// ElevenLabsConfig configures the ElevenLabs text-to-speech client.
type ElevenLabsConfig struct {
	APIKey     string
	SecretName string
	BaseURL    string
	VoiceID    string
	ModelID    string
	Timeout    time.Duration
}

// ElevenLabsSynthesizer calls the ElevenLabs text-to-speech endpoint. The API key comes from the
// configuration or, when empty, from the secret store.
type ElevenLabsSynthesizer struct {
	cfg        ElevenLabsConfig
	secrets    domain.SecretRepository
	httpClient *http.Client
	logger     domain.Logger

	keyMu sync.Mutex
	key   string
}

func NewElevenLabsSynthesizer(cfg ElevenLabsConfig, secrets domain.SecretRepository, logger domain.Logger) *ElevenLabsSynthesizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ElevenLabsSynthesizer{
		cfg:        cfg,
		secrets:    secrets,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		key:        cfg.APIKey,
	}
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, req domain.SynthesisRequest) (*domain.Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrSynthesisFailed)
	}

	key, err := s.apiKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", domain.ErrSynthesisFailed, domain.ErrSecretLookupFailed, err)
	}

	payload, err := json.Marshal(elevenLabsRequest{
		Text:    req.Text,
		ModelID: s.cfg.ModelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", s.cfg.BaseURL, url.PathEscape(s.cfg.VoiceID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}
	httpReq.Header.Set("xi-api-key", key)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: elevenlabs status %d: %s", domain.ErrSynthesisFailed, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %w", domain.ErrSynthesisFailed, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	s.logger.Info("ElevenLabs synthesis completed", "chars", len(req.Text), "bytes", len(data), "duration_ms", time.Since(start).Milliseconds())
	return &domain.Audio{Data: data, ContentType: contentType}, nil
}

func (s *ElevenLabsSynthesizer) apiKey(ctx context.Context) (string, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	if s.key != "" {
		return s.key, nil
	}
	if s.secrets == nil {
		return "", fmt.Errorf("no api key configured and no secret store available")
	}
	key, err := s.secrets.GetSecret(ctx, s.cfg.SecretName)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("secret %s is empty", s.cfg.SecretName)
	}
	s.key = key
	return key, nil
}

var _ domain.Synthesizer = (*ElevenLabsSynthesizer)(nil)

package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"newspaper-reader/internal/domain"
)

// openAIMaxInput is the longest input the speech endpoint accepts, in characters.
const openAIMaxInput = 4096

// OpenAIConfig configures the OpenAI speech client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

// OpenAISynthesizer produces mp3 speech through the OpenAI audio API.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
	voice  string
	logger domain.Logger
}

func NewOpenAISynthesizer(cfg OpenAIConfig, logger domain.Logger) *OpenAISynthesizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		voice:  cfg.Voice,
		logger: logger,
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, req domain.SynthesisRequest) (*domain.Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrSynthesisFailed)
	}

	input := req.Text
	if runes := []rune(input); len(runes) > openAIMaxInput {
		s.logger.Warn("Speech input shortened to the OpenAI limit", "chars", len(runes), "limit", openAIMaxInput)
		input = string(runes[:openAIMaxInput])
	}

	speed := req.Speed
	if speed == 0 {
		speed = 1.0
	}
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          input,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          clamp(speed, 0.25, 4.0),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %w", domain.ErrSynthesisFailed, err)
	}

	s.logger.Info("OpenAI synthesis completed", "chars", len(req.Text), "bytes", len(data), "model", s.model)
	return &domain.Audio{Data: data, ContentType: "audio/mpeg"}, nil
}

var _ domain.Synthesizer = (*OpenAISynthesizer)(nil)

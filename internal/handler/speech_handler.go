package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"newspaper-reader/internal/domain"
)

// SpeechHandler synthesizes arbitrary text through the configured voice API.
type SpeechHandler struct {
	synth  domain.Synthesizer
	logger domain.Logger
}

// NewSpeechHandler creates a speech handler. synth may be nil when no voice API is configured.
func NewSpeechHandler(synth domain.Synthesizer, logger domain.Logger) *SpeechHandler {
	return &SpeechHandler{synth: synth, logger: logger}
}

type synthesizeRequest struct {
	Text  string  `json:"text"`
	Speed float64 `json:"speed"`
	Pitch float64 `json:"pitch"`
}

// Synthesize returns the encoded audio for the request text.
func (h *SpeechHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	if h.synth == nil {
		writeDomainError(w, h.logger, domain.ErrSynthesizerMissing)
		return
	}

	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}
	if req.Speed == 0 {
		req.Speed = 1
	}
	if req.Pitch == 0 {
		req.Pitch = 1
	}

	audio, err := h.synth.Synthesize(r.Context(), domain.SynthesisRequest{
		Text:  req.Text,
		Speed: req.Speed,
		Pitch: req.Pitch,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}

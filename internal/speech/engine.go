package speech

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrClosed is returned by a Player after Close.
	ErrClosed = errors.New("speech player closed")
	// ErrUpdateUnsupported is returned by playbacks that cannot change prosody mid-utterance.
	ErrUpdateUnsupported = errors.New("live prosody update not supported")
	// ErrPauseUnsupported is returned where the platform cannot suspend a playback.
	ErrPauseUnsupported = errors.New("pause not supported on this platform")
)

// Voice is a synthesis voice offered by an engine.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// Utterance is one request to speak text.
type Utterance struct {
	Text   string
	Voice  *Voice
	Speed  float64
	Pitch  float64
	Volume float64
}

// Engine starts utterances. Start returns once audio output has begun.
type Engine interface {
	Voices(ctx context.Context) ([]Voice, error)
	Start(ctx context.Context, u Utterance) (Playback, error)
}

// Playback controls a started utterance.
type Playback interface {
	// Wait blocks until the utterance ends, naturally or by Stop.
	Wait() error
	Pause() error
	Resume() error
	Stop() error
	// Update applies new speed, pitch and volume to the running utterance.
	Update(u Utterance) error
}

// SelectVoice returns the first voice whose language tag mentions English, or nil for the engine default.
func SelectVoice(voices []Voice) *Voice {
	for i := range voices {
		if strings.Contains(strings.ToLower(voices[i].Language), "en") {
			v := voices[i]
			return &v
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

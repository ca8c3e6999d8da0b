package speech

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"sync"

	"newspaper-reader/internal/domain"
)

// mpg123 scales output by -f, where 32768 is unity gain.
const mpg123UnityScale = 32768

// VoiceAPIEngine synthesizes through a remote Synthesizer and plays the clip with a local audio player.
// Without a player command the clip is only kept for download and the playback lasts until stopped.
type VoiceAPIEngine struct {
	synth         domain.Synthesizer
	playerCommand string
	logger        domain.Logger

	mu   sync.RWMutex
	last *domain.Audio
}

func NewVoiceAPIEngine(synth domain.Synthesizer, playerCommand string, logger domain.Logger) *VoiceAPIEngine {
	return &VoiceAPIEngine{synth: synth, playerCommand: playerCommand, logger: logger}
}

// Voices returns nothing: the remote voice is fixed by configuration.
func (e *VoiceAPIEngine) Voices(ctx context.Context) ([]Voice, error) {
	return nil, nil
}

func (e *VoiceAPIEngine) Start(ctx context.Context, u Utterance) (Playback, error) {
	audio, err := e.synth.Synthesize(ctx, domain.SynthesisRequest{Text: u.Text, Speed: u.Speed, Pitch: u.Pitch})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.last = audio
	e.mu.Unlock()

	if e.playerCommand == "" {
		e.logger.Debug("Voice API clip ready; no local audio player configured", "bytes", len(audio.Data))
		return newHeldPlayback(), nil
	}

	cmd := exec.Command(e.playerCommand, "-q", "-f", strconv.Itoa(int(math.Round(mpg123UnityScale*u.Volume))), "-")
	cmd.Stdin = bytes.NewReader(audio.Data)
	pb, err := startProcess(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start %s: %w", domain.ErrSynthesisFailed, e.playerCommand, err)
	}
	return pb, nil
}

// LastAudio returns the most recently synthesized clip.
func (e *VoiceAPIEngine) LastAudio() (*domain.Audio, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.last != nil
}

// heldPlayback has no audio output of its own; it ends only when stopped.
type heldPlayback struct {
	once sync.Once
	done chan struct{}
}

func newHeldPlayback() *heldPlayback {
	return &heldPlayback{done: make(chan struct{})}
}

func (h *heldPlayback) Wait() error {
	<-h.done
	return nil
}

func (h *heldPlayback) Pause() error  { return nil }
func (h *heldPlayback) Resume() error { return nil }

func (h *heldPlayback) Stop() error {
	h.once.Do(func() { close(h.done) })
	return nil
}

func (h *heldPlayback) Update(Utterance) error { return nil }

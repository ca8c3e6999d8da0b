package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"newspaper-reader/internal/domain"
)

// Player keeps at most one utterance active on an Engine and reports playing/not-playing
// transitions to its observers, in order, from a single dispatcher goroutine.
type Player struct {
	engine Engine
	logger domain.Logger

	mu      sync.Mutex
	current *activeUtterance
	nextID  uint64
	closed  bool
	voice   *Voice
	voiceOK bool

	// startMu keeps engine starts from overlapping.
	startMu sync.Mutex

	qmu       sync.Mutex
	queue     []bool
	observers []observer
	nextObs   uint64
	notify    chan struct{}
	quit      chan struct{}
	done      chan struct{}
}

type observer struct {
	id uint64
	fn func(isPlaying bool)
}

type activeUtterance struct {
	id        uint64
	utterance Utterance
	playback  Playback
	cancel    context.CancelFunc
	started   bool
	paused    bool
}

// NewPlayer creates a player and starts its event dispatcher. Call Close to release it.
func NewPlayer(engine Engine, logger domain.Logger) *Player {
	p := &Player{
		engine: engine,
		logger: logger,
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.dispatch()
	return p
}

// Subscribe registers fn for playing-state changes. The returned func removes it.
func (p *Player) Subscribe(fn func(isPlaying bool)) func() {
	p.qmu.Lock()
	p.nextObs++
	id := p.nextObs
	p.observers = append(p.observers, observer{id: id, fn: fn})
	p.qmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.qmu.Lock()
			defer p.qmu.Unlock()
			for i, o := range p.observers {
				if o.id == id {
					p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// Speak stops any current utterance and starts text with the given speed, pitch and volume.
// It returns once the engine has started speaking.
func (p *Player) Speak(ctx context.Context, text string, speed, pitch, volume float64) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.stopLocked()
	p.nextID++
	id := p.nextID
	uctx, cancel := context.WithCancel(ctx)
	u := Utterance{
		Text:   text,
		Speed:  clamp(speed, domain.MinSpeed, domain.MaxSpeed),
		Pitch:  clamp(pitch, domain.MinPitch, domain.MaxPitch),
		Volume: clamp(volume, domain.MinVolume, domain.MaxVolume),
	}
	p.current = &activeUtterance{id: id, utterance: u, cancel: cancel}
	p.mu.Unlock()

	p.startMu.Lock()
	defer p.startMu.Unlock()

	if !p.isCurrent(id) {
		cancel()
		return domain.ErrSuperseded
	}

	u.Voice = p.resolveVoice(uctx)
	playback, err := p.engine.Start(uctx, u)

	p.mu.Lock()
	if p.current == nil || p.current.id != id {
		p.mu.Unlock()
		if playback != nil {
			_ = playback.Stop()
		}
		cancel()
		return domain.ErrSuperseded
	}
	if err != nil {
		p.current = nil
		p.mu.Unlock()
		cancel()
		p.logger.Error("Speech engine failed to start", err, "chars", len(text))
		if errors.Is(err, domain.ErrSynthesisFailed) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrSynthesisFailed, err)
	}

	p.current.utterance = u
	p.current.playback = playback
	p.current.started = true
	p.emitLocked(true)
	p.mu.Unlock()

	p.logger.Debug("Speech started", "id", id, "chars", len(text), "speed", u.Speed, "pitch", u.Pitch, "volume", u.Volume)
	go p.watch(id, playback, cancel)
	return nil
}

func (p *Player) watch(id uint64, playback Playback, cancel context.CancelFunc) {
	err := playback.Wait()
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.id != id {
		return
	}
	p.current = nil
	if err != nil {
		p.logger.Error("Speech playback ended with error", err, "id", id)
	} else {
		p.logger.Debug("Speech finished", "id", id)
	}
	p.emitLocked(false)
}

// Pause suspends the current utterance. It reports whether anything was paused.
func (p *Player) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.current
	if c == nil || !c.started || c.paused {
		return false
	}
	if err := c.playback.Pause(); err != nil {
		p.logger.Warn("Failed to pause speech", "error", err)
		return false
	}
	c.paused = true
	p.emitLocked(false)
	return true
}

// Resume continues a paused utterance. It never restarts synthesis.
func (p *Player) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.current
	if c == nil || !c.paused {
		return false
	}
	if err := c.playback.Resume(); err != nil {
		p.logger.Warn("Failed to resume speech", "error", err)
		return false
	}
	c.paused = false
	p.emitLocked(true)
	return true
}

// Stop cancels the current utterance, including one that is still starting.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	c := p.current
	if c == nil {
		return
	}
	p.current = nil
	c.cancel()
	if c.playback != nil {
		if err := c.playback.Stop(); err != nil {
			p.logger.Debug("Speech stop reported error", "error", err)
		}
	}
	// paused utterances already reported false
	if c.started && !c.paused {
		p.emitLocked(false)
	}
}

// SetSpeed changes the speed of the current utterance only.
func (p *Player) SetSpeed(speed float64) {
	p.update(func(u *Utterance) { u.Speed = clamp(speed, domain.MinSpeed, domain.MaxSpeed) })
}

// SetPitch changes the pitch of the current utterance only.
func (p *Player) SetPitch(pitch float64) {
	p.update(func(u *Utterance) { u.Pitch = clamp(pitch, domain.MinPitch, domain.MaxPitch) })
}

// SetVolume changes the volume of the current utterance only.
func (p *Player) SetVolume(volume float64) {
	p.update(func(u *Utterance) { u.Volume = clamp(volume, domain.MinVolume, domain.MaxVolume) })
}

func (p *Player) update(apply func(*Utterance)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.current
	if c == nil || !c.started {
		return
	}
	apply(&c.utterance)
	if err := c.playback.Update(c.utterance); err != nil {
		if errors.Is(err, ErrUpdateUnsupported) {
			p.logger.Debug("Speech engine ignores live prosody changes")
			return
		}
		p.logger.Warn("Failed to update speech", "error", err)
	}
}

// IsPlaying reports whether an utterance is audible right now.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.started && !p.current.paused
}

// IsPaused reports whether the current utterance is paused.
func (p *Player) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.paused
}

// Close stops playback, delivers pending events and stops the dispatcher.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.stopLocked()
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	<-p.done
	return nil
}

func (p *Player) isCurrent(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.id == id
}

func (p *Player) resolveVoice(ctx context.Context) *Voice {
	p.mu.Lock()
	if p.voiceOK {
		v := p.voice
		p.mu.Unlock()
		return v
	}
	p.mu.Unlock()

	voices, err := p.engine.Voices(ctx)
	if err != nil {
		p.logger.Warn("Failed to list speech voices; using engine default", "error", err)
		return nil
	}
	v := SelectVoice(voices)

	p.mu.Lock()
	p.voice, p.voiceOK = v, true
	p.mu.Unlock()
	if v != nil {
		p.logger.Info("Speech voice selected", "voice", v.Name, "language", v.Language)
	}
	return v
}

func (p *Player) emitLocked(isPlaying bool) {
	p.qmu.Lock()
	p.queue = append(p.queue, isPlaying)
	p.qmu.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Player) dispatch() {
	defer close(p.done)
	for {
		select {
		case <-p.notify:
			p.drain()
		case <-p.quit:
			p.drain()
			return
		}
	}
}

func (p *Player) drain() {
	for {
		p.qmu.Lock()
		if len(p.queue) == 0 {
			p.qmu.Unlock()
			return
		}
		ev := p.queue[0]
		p.queue = p.queue[1:]
		observers := make([]observer, len(p.observers))
		copy(observers, p.observers)
		p.qmu.Unlock()

		for _, o := range observers {
			o.fn(ev)
		}
	}
}

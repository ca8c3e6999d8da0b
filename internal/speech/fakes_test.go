package speech

import (
	"context"
	"sync"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})         {}
func (nopLogger) Error(string, error, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Warn(string, ...interface{})         {}

// fakeEngine records engine calls. Playbacks run until stopped or finished by the test.
type fakeEngine struct {
	mu        sync.Mutex
	voices    []Voice
	startErr  error
	started   []Utterance
	playbacks []*fakePlayback
	// block, when set, makes Start wait until it is closed or ctx ends.
	block chan struct{}
}

func (e *fakeEngine) Voices(ctx context.Context) ([]Voice, error) {
	return e.voices, nil
}

func (e *fakeEngine) Start(ctx context.Context, u Utterance) (Playback, error) {
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startErr != nil {
		return nil, e.startErr
	}
	pb := &fakePlayback{done: make(chan struct{})}
	e.started = append(e.started, u)
	e.playbacks = append(e.playbacks, pb)
	return pb, nil
}

func (e *fakeEngine) starts() []Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Utterance(nil), e.started...)
}

func (e *fakeEngine) playback(i int) *fakePlayback {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playbacks[i]
}

type fakePlayback struct {
	mu       sync.Mutex
	once     sync.Once
	done     chan struct{}
	endErr   error
	paused   bool
	stopped  bool
	updates  []Utterance
	pauseErr error
}

func (p *fakePlayback) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endErr
}

func (p *fakePlayback) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pauseErr != nil {
		return p.pauseErr
	}
	p.paused = true
	return nil
}

func (p *fakePlayback) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	return nil
}

func (p *fakePlayback) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.finish(nil)
	return nil
}

func (p *fakePlayback) Update(u Utterance) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
	return nil
}

// finish ends the playback as if the audio ran out.
func (p *fakePlayback) finish(err error) {
	p.once.Do(func() {
		p.mu.Lock()
		p.endErr = err
		p.mu.Unlock()
		close(p.done)
	})
}

func (p *fakePlayback) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// eventLog collects player events.
type eventLog struct {
	mu     sync.Mutex
	events []bool
}

func (l *eventLog) record(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, v)
}

func (l *eventLog) snapshot() []bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]bool(nil), l.events...)
}

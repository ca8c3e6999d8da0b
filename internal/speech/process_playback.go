package speech

import (
	"errors"
	"os"
	"os/exec"
	"sync"
)

// processPlayback is a Playback backed by a running child process.
type processPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	mu      sync.Mutex
	stopped bool
	paused  bool
}

// startProcess starts cmd and reaps it in the background.
func startProcess(cmd *exec.Cmd) (*processPlayback, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	pb := &processPlayback{cmd: cmd, done: make(chan struct{})}
	go func() {
		pb.err = cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

func (p *processPlayback) Wait() error {
	<-p.done
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return nil
	}
	return p.err
}

func (p *processPlayback) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.paused {
		return nil
	}
	if err := suspendProcess(p.cmd.Process); err != nil {
		return err
	}
	p.paused = true
	return nil
}

func (p *processPlayback) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || !p.paused {
		return nil
	}
	if err := resumeProcess(p.cmd.Process); err != nil {
		return err
	}
	p.paused = false
	return nil
}

func (p *processPlayback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return nil
	}
	p.stopped = true
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *processPlayback) Update(Utterance) error {
	return ErrUpdateUnsupported
}

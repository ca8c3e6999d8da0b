package speech

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newspaper-reader/internal/domain"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func newTestPlayer(t *testing.T, engine Engine) (*Player, *eventLog) {
	t.Helper()
	p := NewPlayer(engine, nopLogger{})
	t.Cleanup(func() { _ = p.Close() })
	log := &eventLog{}
	p.Subscribe(log.record)
	return p, log
}

func eventsEqual(log *eventLog, want ...bool) func() bool {
	return func() bool {
		got := log.snapshot()
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}
}

func TestPlayer_SpeakEmitsStart(t *testing.T) {
	engine := &fakeEngine{}
	p, log := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "Hello world", 1.0, 1.0, 1.0))

	require.Eventually(t, eventsEqual(log, true), waitFor, tick)
	assert.True(t, p.IsPlaying())
	starts := engine.starts()
	require.Len(t, starts, 1)
	assert.Equal(t, "Hello world", starts[0].Text)
	assert.Equal(t, 1.0, starts[0].Speed)
	assert.Equal(t, 1.0, starts[0].Pitch)
	assert.Equal(t, 1.0, starts[0].Volume)
}

func TestPlayer_SpeakCarriesVolume(t *testing.T) {
	engine := &fakeEngine{}
	p, _ := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "quiet", 1.0, 1.0, 0.2))
	require.NoError(t, p.Speak(context.Background(), "loud", 1.0, 1.0, 7))

	starts := engine.starts()
	require.Len(t, starts, 2)
	assert.Equal(t, 0.2, starts[0].Volume)
	assert.Equal(t, domain.MaxVolume, starts[1].Volume)
}

func TestPlayer_SpeakWhileSpeakingCancelsFirst(t *testing.T) {
	engine := &fakeEngine{}
	p, log := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "first", 1.0, 1.0, 1.0))
	require.NoError(t, p.Speak(context.Background(), "second", 1.0, 1.0, 1.0))

	require.Eventually(t, eventsEqual(log, true, false, true), waitFor, tick)
	assert.True(t, engine.playback(0).isStopped())
	assert.False(t, engine.playback(1).isStopped())
	assert.Len(t, engine.starts(), 2)
}

func TestPlayer_PauseResumeDoesNotRestart(t *testing.T) {
	engine := &fakeEngine{}
	p, log := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	assert.True(t, p.Pause())
	assert.True(t, p.IsPaused())
	assert.False(t, p.Pause())
	assert.True(t, p.Resume())
	assert.False(t, p.Resume())

	require.Eventually(t, eventsEqual(log, true, false, true), waitFor, tick)
	assert.Len(t, engine.starts(), 1)
	assert.True(t, p.IsPlaying())
}

func TestPlayer_PauseResumeIdleAreNoOps(t *testing.T) {
	p, log := newTestPlayer(t, &fakeEngine{})

	assert.False(t, p.Pause())
	assert.False(t, p.Resume())
	p.Stop()
	p.SetSpeed(1.5)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, log.snapshot())
}

func TestPlayer_StopEmitsFalseOnce(t *testing.T) {
	engine := &fakeEngine{}
	p, log := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	p.Stop()
	p.Stop()

	require.Eventually(t, eventsEqual(log, true, false), waitFor, tick)
	assert.False(t, p.IsPlaying())
	assert.True(t, engine.playback(0).isStopped())
}

func TestPlayer_NaturalEndEmitsFalse(t *testing.T) {
	engine := &fakeEngine{}
	p, log := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	engine.playback(0).finish(nil)

	require.Eventually(t, eventsEqual(log, true, false), waitFor, tick)
	require.Eventually(t, func() bool { return !p.IsPlaying() }, waitFor, tick)
}

func TestPlayer_PlaybackErrorEmitsFalseWithoutRetry(t *testing.T) {
	engine := &fakeEngine{}
	p, log := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	engine.playback(0).finish(errors.New("audio device lost"))

	require.Eventually(t, eventsEqual(log, true, false), waitFor, tick)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, engine.starts(), 1)
}

func TestPlayer_StartErrorIsSynthesisFailure(t *testing.T) {
	engine := &fakeEngine{startErr: errors.New("no audio output")}
	p, log := newTestPlayer(t, engine)

	err := p.Speak(context.Background(), "text", 1.0, 1.0, 1.0)
	assert.ErrorIs(t, err, domain.ErrSynthesisFailed)
	assert.False(t, p.IsPlaying())
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, log.snapshot())
}

func TestPlayer_StopDuringStartSupersedes(t *testing.T) {
	engine := &fakeEngine{block: make(chan struct{})}
	p, log := newTestPlayer(t, engine)

	errCh := make(chan error, 1)
	go func() { errCh <- p.Speak(context.Background(), "slow", 1.0, 1.0, 1.0) }()

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.current != nil
	}, waitFor, tick)
	p.Stop()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, domain.ErrSuperseded)
	case <-time.After(waitFor):
		t.Fatal("Speak did not return after Stop")
	}
	assert.Empty(t, log.snapshot())
	assert.Empty(t, engine.starts())
}

func TestPlayer_SettingsApplyToCurrentUtteranceOnly(t *testing.T) {
	engine := &fakeEngine{}
	p, _ := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	p.SetSpeed(1.5)
	p.SetPitch(5)
	p.SetVolume(0.25)

	pb := engine.playback(0)
	pb.mu.Lock()
	updates := append([]Utterance(nil), pb.updates...)
	pb.mu.Unlock()
	require.Len(t, updates, 3)
	last := updates[2]
	assert.Equal(t, 1.5, last.Speed)
	assert.Equal(t, domain.MaxPitch, last.Pitch)
	assert.Equal(t, 0.25, last.Volume)

	p.Stop()
	require.NoError(t, p.Speak(context.Background(), "again", 1.0, 1.0, 1.0))
	starts := engine.starts()
	assert.Equal(t, 1.0, starts[1].Speed)
	assert.Equal(t, 1.0, starts[1].Volume)
}

func TestPlayer_SelectsEnglishVoice(t *testing.T) {
	engine := &fakeEngine{voices: []Voice{
		{ID: "fr", Name: "French", Language: "fr"},
		{ID: "en-gb", Name: "English", Language: "en-gb"},
		{ID: "en-us", Name: "American", Language: "en-us"},
	}}
	p, _ := newTestPlayer(t, engine)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	starts := engine.starts()
	require.NotNil(t, starts[0].Voice)
	assert.Equal(t, "en-gb", starts[0].Voice.ID)
}

func TestPlayer_Unsubscribe(t *testing.T) {
	engine := &fakeEngine{}
	p, log := newTestPlayer(t, engine)
	other := &eventLog{}
	unsubscribe := p.Subscribe(other.record)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	require.Eventually(t, eventsEqual(other, true), waitFor, tick)
	unsubscribe()
	unsubscribe()

	p.Stop()
	require.Eventually(t, eventsEqual(log, true, false), waitFor, tick)
	assert.Equal(t, []bool{true}, other.snapshot())
}

func TestPlayer_CloseRejectsSpeak(t *testing.T) {
	engine := &fakeEngine{}
	p := NewPlayer(engine, nopLogger{})
	log := &eventLog{}
	p.Subscribe(log.record)

	require.NoError(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Equal(t, []bool{true, false}, log.snapshot())
	assert.ErrorIs(t, p.Speak(context.Background(), "text", 1.0, 1.0, 1.0), ErrClosed)
}

func TestSelectVoice(t *testing.T) {
	assert.Nil(t, SelectVoice(nil))
	assert.Nil(t, SelectVoice([]Voice{{ID: "de", Language: "de"}}))
	v := SelectVoice([]Voice{{ID: "de", Language: "de"}, {ID: "en", Language: "EN-us"}})
	require.NotNil(t, v)
	assert.Equal(t, "en", v.ID)
}

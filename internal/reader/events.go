package reader

import (
	"time"

	"newspaper-reader/internal/domain"
)

// maxNotices bounds the notice history kept in memory.
const maxNotices = 50

// subscriberBuffer is the per-subscriber event backlog; events beyond it are dropped for that subscriber.
const subscriberBuffer = 64

// EventType distinguishes session events.
type EventType string

const (
	EventState  EventType = "state"
	EventNotice EventType = "notice"
)

// Event is a state change or a notice, as streamed to clients.
type Event struct {
	Type   EventType      `json:"type"`
	State  *Snapshot      `json:"state,omitempty"`
	Notice *domain.Notice `json:"notice,omitempty"`
}

// Snapshot is a consistent view of the session.
type Snapshot struct {
	State    domain.ReaderState   `json:"state"`
	Document *domain.Document     `json:"document,omitempty"`
	Playback domain.PlaybackState `json:"playback"`
}

// Subscribe returns a channel of session events and a func that closes it.
// A subscriber that falls behind loses events rather than blocking the session.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.closed {
		close(ch)
	} else {
		s.subscribers[id] = ch
	}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(c)
		}
	}
}

// Notices returns the retained notices, oldest first.
func (s *Session) Notices() []domain.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notice(nil), s.notices...)
}

func (s *Session) addNoticeLocked(level domain.NoticeLevel, kind domain.ErrorKind, message string) {
	s.nextNotice++
	n := domain.Notice{
		ID:        s.nextNotice,
		Level:     level,
		Kind:      kind,
		Message:   message,
		CreatedAt: s.now(),
	}
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = append([]domain.Notice(nil), s.notices[len(s.notices)-maxNotices:]...)
	}

	if level == domain.NoticeError {
		s.logger.Warn("Reader notice", "kind", kind, "message", message)
	} else {
		s.logger.Info("Reader notice", "message", message)
	}
	s.publishLocked(Event{Type: EventNotice, Notice: &n})
}

func (s *Session) broadcastStateLocked() {
	snap := s.snapshotLocked()
	s.publishLocked(Event{Type: EventState, State: &snap})
}

func (s *Session) publishLocked(ev Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Playback: s.playback}
	if s.doc != nil {
		doc := *s.doc
		snap.Document = &doc
	}
	return snap
}

func defaultNow() time.Time {
	return time.Now().UTC()
}

package reader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"newspaper-reader/internal/domain"
)

// SpeechPlayer is the playback adapter the session drives.
type SpeechPlayer interface {
	Speak(ctx context.Context, text string, speed, pitch, volume float64) error
	Pause() bool
	Resume() bool
	Stop()
	IsPlaying() bool
	SetSpeed(speed float64)
	SetPitch(pitch float64)
	SetVolume(volume float64)
	Subscribe(fn func(isPlaying bool)) func()
}

// Session sequences extraction, persistence and playback for the single selected newspaper.
type Session struct {
	extractor   domain.TextExtractor
	persister   domain.Persister
	player      SpeechPlayer
	maxFileSize int64
	logger      domain.Logger
	now         func() time.Time

	mu          sync.Mutex
	state       domain.ReaderState
	doc         *domain.Document
	playback    domain.PlaybackState
	generation  uint64
	cancel      context.CancelFunc
	speakCancel context.CancelFunc

	notices     []domain.Notice
	nextNotice  uint64
	subscribers map[uint64]chan Event
	nextSub     uint64
	closed      bool

	// speechMu orders speak attempts against stops so a stale start cannot outlive a stop.
	speechMu sync.Mutex

	unsubscribe func()
}

// NewSession wires a session to its adapters. persister may be nil to skip persistence.
func NewSession(
	extractor domain.TextExtractor,
	persister domain.Persister,
	player SpeechPlayer,
	maxFileSize int64,
	logger domain.Logger,
) *Session {
	s := &Session{
		extractor:   extractor,
		persister:   persister,
		player:      player,
		maxFileSize: maxFileSize,
		logger:      logger,
		now:         defaultNow,
		state:       domain.StateEmpty,
		playback:    domain.DefaultPlaybackState(),
		subscribers: make(map[uint64]chan Event),
	}
	s.unsubscribe = player.Subscribe(s.onPlayback)
	return s
}

// SelectFile makes upload the current newspaper: it validates, extracts, persists and starts reading.
// A selection superseded by a newer one returns domain.ErrSuperseded and leaves the session alone.
func (s *Session) SelectFile(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	if !isPDF(upload.ContentType) {
		s.mu.Lock()
		s.addNoticeLocked(domain.NoticeError, domain.KindFileTypeRejected, "Please upload a PDF file")
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", domain.ErrFileTypeRejected, upload.ContentType)
	}
	if s.maxFileSize > 0 && upload.Size() > s.maxFileSize {
		s.mu.Lock()
		s.addNoticeLocked(domain.NoticeError, domain.KindFileTooLarge, fmt.Sprintf(
			"File is too large (%s). The limit is %s.",
			humanize.Bytes(uint64(upload.Size())), humanize.Bytes(uint64(s.maxFileSize)),
		))
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrFileTooLarge, upload.Size())
	}

	gen, selCtx, cancel := s.supersede(ctx)
	defer cancel()

	doc := domain.NewDocument(upload, s.now())
	s.logger.Info("Newspaper selected", "title", doc.Title, "size", doc.Size, "generation", gen)

	extraction, err := s.extractor.Extract(selCtx, upload.Data)
	if !s.isCurrent(gen) {
		return nil, domain.ErrSuperseded
	}
	if err == nil && strings.TrimSpace(extraction.Text) == "" {
		err = fmt.Errorf("%w: no text found in PDF", domain.ErrExtractionFailed)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
		}
		return nil, s.fail(gen, err, "Error processing PDF: no readable text found")
	}

	doc.ExtractedText = extraction.Text
	doc.PageCount = extraction.PageCount
	doc.PagesRead = extraction.PagesRead
	doc.Truncated = extraction.Truncated

	if s.persister != nil {
		if !s.transition(gen, domain.StatePersisting, doc) {
			return nil, domain.ErrSuperseded
		}
		stored, err := s.persister.Persist(selCtx, doc)
		if !s.isCurrent(gen) {
			return nil, domain.ErrSuperseded
		}
		if err != nil {
			msg := "Error processing PDF: failed to save the newspaper"
			switch domain.KindOf(err) {
			case domain.KindUploadFailed:
				msg = "Error processing PDF: failed to upload the file"
			case domain.KindRecordInsertFailed:
				msg = "Error processing PDF: failed to save the newspaper record"
			}
			return nil, s.fail(gen, err, msg)
		}
		doc.StorageLocator = stored.StorageLocator
		doc.RecordID = stored.RecordID
	}

	if !s.transition(gen, domain.StateReady, doc) {
		return nil, domain.ErrSuperseded
	}
	s.logger.Info("Newspaper ready", "title", doc.Title, "chars", len(doc.ExtractedText), "pages", doc.PagesRead, "record_id", doc.RecordID)

	// speech failures are reported as notices and never undo the selection
	_ = s.speak(ctx, gen, domain.DefaultPlaybackState().Speed, domain.DefaultPlaybackState().Pitch)

	out := *doc
	return &out, nil
}

// supersede voids in-flight work, resets the session and enters the extracting state.
func (s *Session) supersede(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	selCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.speakCancel != nil {
		s.speakCancel()
		s.speakCancel = nil
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.doc = nil
	s.state = domain.StateExtracting
	s.playback = domain.DefaultPlaybackState()
	s.addNoticeLocked(domain.NoticeSuccess, "", "PDF uploaded successfully!")
	s.broadcastStateLocked()
	s.mu.Unlock()

	s.speechMu.Lock()
	s.player.Stop()
	s.speechMu.Unlock()

	return gen, selCtx, cancel
}

func (s *Session) transition(gen uint64, state domain.ReaderState, doc *domain.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.state = state
	s.doc = doc
	if state == domain.StateReady {
		s.cancel = nil
	}
	s.broadcastStateLocked()
	return true
}

// fail rolls a selection back to the empty state with one error notice.
func (s *Session) fail(gen uint64, err error, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return domain.ErrSuperseded
	}
	s.logger.Error("Newspaper selection failed", err, "generation", gen)
	s.state = domain.StateEmpty
	s.doc = nil
	s.cancel = nil
	s.playback = domain.DefaultPlaybackState()
	s.addNoticeLocked(domain.NoticeError, domain.KindOf(err), message)
	s.broadcastStateLocked()
	return err
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// speak reads the current document from the start. ctx only bounds the start of speech.
func (s *Session) speak(ctx context.Context, gen uint64, speed, pitch float64) error {
	s.speechMu.Lock()
	defer s.speechMu.Unlock()

	s.mu.Lock()
	if gen != s.generation || s.doc == nil || !s.state.HasDocument() {
		s.mu.Unlock()
		return domain.ErrSuperseded
	}
	text := s.doc.ExtractedText
	volume := s.playback.Volume
	speakCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.speakCancel = cancel
	s.mu.Unlock()
	defer cancel()

	err := s.player.Speak(speakCtx, text, speed, pitch, volume)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrSuperseded) || speakCtx.Err() != nil {
		return domain.ErrSuperseded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.playback.IsPlaying = false
		msg := "Failed to read the newspaper aloud"
		if domain.KindOf(err) == domain.KindSecretLookupFailed {
			msg = "Failed to read the newspaper aloud: voice API key unavailable"
		}
		s.addNoticeLocked(domain.NoticeError, domain.KindOf(err), msg)
		s.broadcastStateLocked()
	}
	return err
}

// stopSpeech cancels a pending start and stops the player.
func (s *Session) stopSpeech() {
	s.mu.Lock()
	if s.speakCancel != nil {
		s.speakCancel()
		s.speakCancel = nil
	}
	s.mu.Unlock()

	s.speechMu.Lock()
	s.player.Stop()
	s.speechMu.Unlock()
}

// onPlayback applies player events. Only a loaded document can be playing.
func (s *Session) onPlayback(isPlaying bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case isPlaying && s.state.HasDocument():
		if s.state == domain.StatePlaying && s.playback.IsPlaying {
			return
		}
		s.state = domain.StatePlaying
		s.playback.IsPlaying = true
	case !isPlaying && s.state == domain.StatePlaying:
		s.state = domain.StateReady
		s.playback.IsPlaying = false
	default:
		return
	}
	s.broadcastStateLocked()
}

// PlayPause pauses while playing, resumes while paused and otherwise reads from the start.
func (s *Session) PlayPause(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if !s.state.HasDocument() {
		s.mu.Unlock()
		return s.Snapshot(), domain.ErrNoDocument
	}
	state, gen := s.state, s.generation
	speed, pitch := s.playback.Speed, s.playback.Pitch

	switch state {
	case domain.StatePlaying:
		s.state = domain.StatePaused
		s.playback.IsPlaying = false
		s.broadcastStateLocked()
		s.mu.Unlock()

		if !s.player.Pause() {
			// nothing was paused: either the reading already ended or the engine cannot pause
			stillPlaying := s.player.IsPlaying()
			s.mu.Lock()
			if gen == s.generation && s.state == domain.StatePaused {
				s.state = domain.StateReady
				if stillPlaying {
					s.state = domain.StatePlaying
				}
				s.playback.IsPlaying = stillPlaying
				s.broadcastStateLocked()
			}
			s.mu.Unlock()
		}
		return s.Snapshot(), nil

	case domain.StatePaused:
		s.mu.Unlock()
		if s.player.Resume() {
			return s.Snapshot(), nil
		}
		s.mu.Lock()
		if gen == s.generation && s.state == domain.StatePaused {
			s.state = domain.StateReady
			s.broadcastStateLocked()
		}
		s.mu.Unlock()
	default:
		s.mu.Unlock()
	}

	err := s.speak(ctx, gen, speed, pitch)
	if errors.Is(err, domain.ErrSuperseded) {
		err = nil
	}
	return s.Snapshot(), err
}

// SkipBack restarts reading from the beginning of the document.
func (s *Session) SkipBack(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if !s.state.HasDocument() {
		s.mu.Unlock()
		return s.Snapshot(), domain.ErrNoDocument
	}
	gen := s.generation
	speed, pitch := s.playback.Speed, s.playback.Pitch
	s.mu.Unlock()

	err := s.speak(ctx, gen, speed, pitch)
	if errors.Is(err, domain.ErrSuperseded) {
		err = nil
	}
	return s.Snapshot(), err
}

// SkipForward ends the current reading.
func (s *Session) SkipForward() (Snapshot, error) {
	return s.Stop()
}

// Stop stops reading; the document stays loaded.
func (s *Session) Stop() (Snapshot, error) {
	s.mu.Lock()
	if !s.state.HasDocument() {
		s.mu.Unlock()
		return s.Snapshot(), domain.ErrNoDocument
	}
	s.mu.Unlock()

	s.stopSpeech()

	s.mu.Lock()
	if s.state.HasDocument() && s.state != domain.StateReady {
		s.state = domain.StateReady
		s.playback.IsPlaying = false
		s.broadcastStateLocked()
	}
	s.mu.Unlock()
	return s.Snapshot(), nil
}

// UpdateSettings validates and applies speed, pitch and volume changes to the session and to the
// current utterance.
func (s *Session) UpdateSettings(settings domain.PlaybackSettings) (Snapshot, error) {
	if err := settings.Validate(); err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	if settings.Speed != nil {
		s.playback.Speed = *settings.Speed
	}
	if settings.Pitch != nil {
		s.playback.Pitch = *settings.Pitch
	}
	if settings.Volume != nil {
		s.playback.Volume = *settings.Volume
	}
	s.broadcastStateLocked()
	s.mu.Unlock()

	if settings.Speed != nil {
		s.player.SetSpeed(*settings.Speed)
	}
	if settings.Pitch != nil {
		s.player.SetPitch(*settings.Pitch)
	}
	if settings.Volume != nil {
		s.player.SetVolume(*settings.Volume)
	}
	return s.Snapshot(), nil
}

// Snapshot returns the current state, document and playback settings.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close detaches from the player and ends every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.speakCancel != nil {
		s.speakCancel()
	}
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()

	s.unsubscribe()
}

func isPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mediaType, domain.PDFContentType)
}

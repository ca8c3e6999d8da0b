package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"newspaper-reader/internal/domain"
	"newspaper-reader/internal/reader"
)

// multipartOverhead is the allowance for form boundaries and headers around the file part.
const multipartOverhead = 1 << 20

// sseKeepAlive is the interval between comment lines on an idle event stream.
const sseKeepAlive = 25 * time.Second

// ReaderSession is the orchestrator the reader endpoints drive.
type ReaderSession interface {
	SelectFile(ctx context.Context, upload domain.Upload) (*domain.Document, error)
	PlayPause(ctx context.Context) (reader.Snapshot, error)
	SkipBack(ctx context.Context) (reader.Snapshot, error)
	SkipForward() (reader.Snapshot, error)
	Stop() (reader.Snapshot, error)
	UpdateSettings(settings domain.PlaybackSettings) (reader.Snapshot, error)
	Snapshot() reader.Snapshot
	Notices() []domain.Notice
	Subscribe() (<-chan reader.Event, func())
}

// AudioSource exposes the last clip produced by a voice API engine.
type AudioSource interface {
	LastAudio() (*domain.Audio, bool)
}

// ReaderHandler handles the reader session endpoints
type ReaderHandler struct {
	session     ReaderSession
	audio       AudioSource
	maxFileSize int64
	logger      domain.Logger
}

// NewReaderHandler creates a reader handler. audio may be nil when the device engine is used.
func NewReaderHandler(session ReaderSession, audio AudioSource, maxFileSize int64, logger domain.Logger) *ReaderHandler {
	return &ReaderHandler{
		session:     session,
		audio:       audio,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// GetState returns the session snapshot.
func (h *ReaderHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// SelectFile handles the newspaper upload.
func (h *ReaderHandler) SelectFile(w http.ResponseWriter, r *http.Request) {
	// Oversized files still reach the session so that it can report them; only absurd bodies are cut here.
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxFileSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDomainError(w, h.logger, fmt.Errorf("%w: request body over %d bytes", domain.ErrFileTooLarge, maxErr.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	// Read one byte past the limit so the session can tell an oversized file apart.
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	upload := domain.Upload{
		Filename:     strings.TrimSpace(filepath.Base(header.Filename)),
		ContentType:  contentType,
		Data:         data,
		// multipart reports the full part size even though only limit+1 bytes were read.
		DeclaredSize: header.Size,
	}

	doc, err := h.session.SelectFile(r.Context(), upload)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *ReaderHandler) PlayPause(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.PlayPause(r.Context())
	h.writeSnapshot(w, snap, err)
}

func (h *ReaderHandler) SkipBack(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.SkipBack(r.Context())
	h.writeSnapshot(w, snap, err)
}

func (h *ReaderHandler) SkipForward(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.SkipForward()
	h.writeSnapshot(w, snap, err)
}

func (h *ReaderHandler) Stop(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Stop()
	h.writeSnapshot(w, snap, err)
}

// UpdateSettings applies a partial {speed, pitch, volume} update.
func (h *ReaderHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.PlaybackSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	snap, err := h.session.UpdateSettings(settings)
	h.writeSnapshot(w, snap, err)
}

// GetNotices lists the retained notices.
func (h *ReaderHandler) GetNotices(w http.ResponseWriter, r *http.Request) {
	notices := h.session.Notices()
	if notices == nil {
		notices = make([]domain.Notice, 0)
	}
	writeJSON(w, http.StatusOK, notices)
}

// GetAudio serves the last synthesized clip.
func (h *ReaderHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	if h.audio == nil {
		writeError(w, http.StatusNotFound, "Audio clips are only available with the voice API engine")
		return
	}
	audio, ok := h.audio.LastAudio()
	if !ok {
		writeError(w, http.StatusNotFound, "No audio has been synthesized yet")
		return
	}
	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio.Data)
}

// Events streams state changes and notices as server-sent events, starting with the current state.
func (h *ReaderHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	events, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	snap := h.session.Snapshot()
	if err := writeEvent(w, reader.Event{Type: reader.EventState, State: &snap}); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				h.logger.Debug("Event stream closed", "error", err)
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, ev reader.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
	return err
}

func (h *ReaderHandler) writeSnapshot(w http.ResponseWriter, snap reader.Snapshot, err error) {
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"newspaper-reader/internal/domain"

	"github.com/gorilla/mux"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// NewspaperStore reads back persisted newspapers.
type NewspaperStore interface {
	List(ctx context.Context, limit int) ([]*domain.NewspaperRecord, error)
	Get(ctx context.Context, id string) (*domain.NewspaperRecord, error)
}

// NewspaperHandler serves the saved newspaper records
type NewspaperHandler struct {
	store  NewspaperStore
	logger domain.Logger
}

// NewNewspaperHandler creates a newspaper handler
func NewNewspaperHandler(store NewspaperStore, logger domain.Logger) *NewspaperHandler {
	return &NewspaperHandler{store: store, logger: logger}
}

// GetNewspapers lists the most recent records
func (h *NewspaperHandler) GetNewspapers(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	records, err := h.store.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if records == nil {
		records = make([]*domain.NewspaperRecord, 0)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"newspapers": records,
		"count":      len(records),
	})
}

// GetNewspaper returns one record by id
func (h *NewspaperHandler) GetNewspaper(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "Newspaper ID is required")
		return
	}

	record, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

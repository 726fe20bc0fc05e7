package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/timetrack/timeentries/internal/handler/dto"
	"github.com/timetrack/timeentries/internal/model"
	"github.com/timetrack/timeentries/internal/service"
)

// EntryService is the business logic the entry handlers delegate to.
type EntryService interface {
	ListEntries(ctx context.Context) ([]*model.TimeEntry, error)
	GetEntry(ctx context.Context, id string) (*model.TimeEntry, error)
	CreateEntry(ctx context.Context, input service.CreateEntryInput) (*model.TimeEntry, error)
	UpdateEntry(ctx context.Context, id string, input service.UpdateEntryInput) (*model.TimeEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// EntryHandler handles time entry endpoints.
type EntryHandler struct {
	svc           EntryService
	logger        *slog.Logger
	lookupEnabled bool
}

// NewEntryHandler creates a new EntryHandler.
// With lookupEnabled, GET /{id} returns the single entry instead of the full list.
func NewEntryHandler(svc EntryService, logger *slog.Logger, lookupEnabled bool) *EntryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryHandler{
		svc:           svc,
		logger:        logger,
		lookupEnabled: lookupEnabled,
	}
}

// List handles GET / requests.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntries(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Get handles GET /{id} requests.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.lookupEnabled {
		h.List(w, r)
		return
	}

	entry, err := h.svc.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Create handles POST / and POST /{id} requests. A path id is ignored.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleDecodeError(w, err)
		return
	}

	entry, err := h.svc.CreateEntry(r.Context(), service.CreateEntryInput{
		Project:   req.Project,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  req.Duration,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("entry_created",
		"entry_id", entry.ID,
		"request_id", requestID(r),
	)

	writeJSON(w, http.StatusCreated, entry)
}

// Update handles PUT /{id} requests.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleDecodeError(w, err)
		return
	}

	entry, err := h.svc.UpdateEntry(r.Context(), id, service.UpdateEntryInput{
		Project:   req.Project,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  req.Duration,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("entry_updated",
		"entry_id", entry.ID,
		"request_id", requestID(r),
	)

	writeJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /{id} requests.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.DeleteEntry(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("entry_deleted",
		"entry_id", id,
		"request_id", requestID(r),
	)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *EntryHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, service.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	default:
		h.logger.Error("internal_error",
			"error", err.Error(),
			"request_id", requestID(r),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *EntryHandler) handleDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// decodeJSON decodes exactly one JSON value from the request body.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("invalid JSON body: empty body")
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return errors.New("invalid JSON body: empty body")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON body: unexpected data after JSON value")
	}

	return nil
}

package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/kairosync/internal/adapters/ical"
	"github.com/okian/kairosync/internal/domain/model"
	"github.com/okian/kairosync/pkg/logger"
)

type draftRequest struct {
	Type model.EventType `json:"type"`
}

type importResponse struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// handleGetDraft handles GET /drafts.
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := s.deps.Draft(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "no_draft", nil)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handlePostDraft handles POST /drafts.
func (s *Server) handlePostDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	d, err := s.deps.CreateDraft(r.Context(), req.Type)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// handlePutDraft handles PUT /drafts.
func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	var ev model.CalendarEvent
	if err := decodeJSON(r, &ev); err != nil {
		writeServiceError(w, err)
		return
	}
	d, err := s.deps.UpdateDraft(r.Context(), ev)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDraft handles DELETE /drafts.
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	s.deps.DiscardDraft(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveDraft handles POST /drafts/save.
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	ev, err := s.deps.SaveDraft(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleListEvents handles GET /events, optionally filtered by ?day=.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("day") == "" {
		writeJSON(w, http.StatusOK, s.deps.Events(r.Context()))
		return
	}
	day, err := queryInt(r, "day", 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.DayEvents(r.Context(), day))
}

// handlePostEvent handles POST /events. A draft id is saved as a new event;
// a saved id replaces that event.
func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.CalendarEvent
	if err := decodeJSON(r, &ev); err != nil {
		writeServiceError(w, err)
		return
	}
	saved, err := s.deps.SaveEvent(r.Context(), ev)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Info(r.Context(), "event saved over http",
		logger.String("request_id", RequestIDFrom(r.Context())),
		logger.String("id", saved.ID),
	)
	writeJSON(w, http.StatusOK, saved)
}

// handleGetEvent handles GET /events/{id}.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.deps.Event(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleDeleteEvent handles DELETE /events/{id}.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEditEvent handles POST /events/{id}/edit, loading the event into
// the editor.
func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.deps.EditEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleExportICS handles GET /events.ics.
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := ical.Encode(&buf, s.deps.Events(r.Context()), s.now()); err != nil {
		s.logger.Error(r.Context(), "calendar export failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="kairosync.ics"`)
	_, _ = w.Write(buf.Bytes())
}

// handleImportICS handles POST /events.ics with a text/calendar body.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	events, undated, err := ical.Decode(io.LimitReader(r.Body, maxBodyBytes), s.now())
	if err != nil {
		writeServiceError(w, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	saved, skipped := s.deps.ImportEvents(r.Context(), events)
	skipped += undated
	s.logger.Info(r.Context(), "calendar imported",
		logger.String("request_id", RequestIDFrom(r.Context())),
		logger.Int("saved", saved),
		logger.Int("skipped", skipped),
	)
	writeJSON(w, http.StatusOK, importResponse{Saved: saved, Skipped: skipped})
}

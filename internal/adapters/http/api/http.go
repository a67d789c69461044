// Package api exposes the application state over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/kairosync/internal/adapters/repository"
	service "github.com/okian/kairosync/internal/app"
	"github.com/okian/kairosync/internal/domain/cities"
	"github.com/okian/kairosync/internal/domain/gesture"
	"github.com/okian/kairosync/internal/domain/model"
	"github.com/okian/kairosync/internal/domain/types"
	"github.com/okian/kairosync/pkg/logger"
)

// maxBodyBytes caps request bodies, including imported calendar feeds.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the state container.
type Dependencies interface {
	Snapshot(ctx context.Context) types.Snapshot
	Stats(ctx context.Context) types.Stats

	// Profiles
	User(ctx context.Context, role types.Role) (model.UserProfile, error)
	SetUser(ctx context.Context, role types.Role, p model.UserProfile) (model.UserProfile, error)
	SetSleepSchedule(ctx context.Context, role types.Role, start, end int) ([]int, error)
	SetLocation(ctx context.Context, role types.Role, city string) (model.UserProfile, error)
	SearchCities(q string) []cities.City

	// Timeline
	SetTime(ctx context.Context, utc float64) float64
	EnterTime(ctx context.Context, text string, role types.Role) (int, error)
	SetDayOffset(ctx context.Context, d int) int
	ResetToNow(ctx context.Context) float64
	OpenModal(ctx context.Context, m types.Modal) error
	CloseModal(ctx context.Context)
	GoldenWindow(ctx context.Context, utc int) types.GoldenResult
	NextGoldenWindow(ctx context.Context, from int) types.GoldenResult

	// Events
	CreateDraft(ctx context.Context, t model.EventType) (model.CalendarEvent, error)
	Draft(ctx context.Context) (model.CalendarEvent, bool)
	UpdateDraft(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, error)
	DiscardDraft(ctx context.Context)
	SaveDraft(ctx context.Context) (model.CalendarEvent, error)
	SaveEvent(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, error)
	EditEvent(ctx context.Context, id string) (model.CalendarEvent, error)
	DeleteEvent(ctx context.Context, id string) error
	Event(ctx context.Context, id string) (model.CalendarEvent, error)
	Events(ctx context.Context) []model.CalendarEvent
	DayEvents(ctx context.Context, dayOffset int) []model.CalendarEvent
	ImportEvents(ctx context.Context, events []model.CalendarEvent) (saved, skipped int)

	// Gestures
	BeginDrag(ctx context.Context, pointerY float64) bool
	Drag(ctx context.Context, pointerY float64) (float64, bool)
	EndDrag(ctx context.Context) (int, bool)
	DialSelect(ctx context.Context, role types.Role) (gesture.Transition, error)
	DialBegin(ctx context.Context) bool
	DialMove(ctx context.Context, px, py, cx, cy float64) (float64, bool)
	DialEnd(ctx context.Context) bool
	DialEnterText(ctx context.Context, text string) (int, error)
	PassiveTime(ctx context.Context) (types.Role, int)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used to date the calendar feed.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time

	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		logger:        logger.Discard(),
		now:           time.Now,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(ctx context.Context, r chi.Router) {
	r.Use(RequestID)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/state", MetricsMiddleware(s.handleState, "state"))

	r.Get("/users/{role}", MetricsMiddleware(s.handleGetUser, "users"))
	r.Put("/users/{role}", MetricsMiddleware(s.handlePutUser, "users"))
	r.Put("/users/{role}/sleep", MetricsMiddleware(s.handlePutSleep, "users_sleep"))
	r.Put("/users/{role}/location", MetricsMiddleware(s.handlePutLocation, "users_location"))
	r.Get("/cities", MetricsMiddleware(s.handleCities, "cities"))

	r.Put("/time", MetricsMiddleware(s.handlePutTime, "time"))
	r.Post("/time/reset", MetricsMiddleware(s.handleResetTime, "time_reset"))
	r.Put("/day", MetricsMiddleware(s.handlePutDay, "day"))
	r.Put("/modal", MetricsMiddleware(s.handlePutModal, "modal"))
	r.Delete("/modal", MetricsMiddleware(s.handleDeleteModal, "modal"))
	r.Get("/golden", MetricsMiddleware(s.handleGolden, "golden"))
	r.Get("/golden/next", MetricsMiddleware(s.handleNextGolden, "golden_next"))

	r.Get("/drafts", MetricsMiddleware(s.handleGetDraft, "drafts"))
	r.Post("/drafts", MetricsMiddleware(s.handlePostDraft, "drafts"))
	r.Put("/drafts", MetricsMiddleware(s.handlePutDraft, "drafts"))
	r.Delete("/drafts", MetricsMiddleware(s.handleDeleteDraft, "drafts"))
	r.Post("/drafts/save", MetricsMiddleware(s.handleSaveDraft, "drafts_save"))

	r.Get("/events", MetricsMiddleware(s.handleListEvents, "events"))
	r.Post("/events", MetricsMiddleware(s.handlePostEvent, "events"))
	r.Get("/events.ics", MetricsMiddleware(s.handleExportICS, "events_ics"))
	r.Post("/events.ics", MetricsMiddleware(s.handleImportICS, "events_ics"))
	r.Get("/events/{id}", MetricsMiddleware(s.handleGetEvent, "event"))
	r.Delete("/events/{id}", MetricsMiddleware(s.handleDeleteEvent, "event"))
	r.Post("/events/{id}/edit", MetricsMiddleware(s.handleEditEvent, "event_edit"))

	r.Post("/gestures/helix/start", MetricsMiddleware(s.handleHelixStart, "gesture_helix"))
	r.Post("/gestures/helix/move", MetricsMiddleware(s.handleHelixMove, "gesture_helix"))
	r.Post("/gestures/helix/end", MetricsMiddleware(s.handleHelixEnd, "gesture_helix"))
	r.Post("/gestures/dial/select", MetricsMiddleware(s.handleDialSelect, "gesture_dial"))
	r.Post("/gestures/dial/start", MetricsMiddleware(s.handleDialStart, "gesture_dial"))
	r.Post("/gestures/dial/move", MetricsMiddleware(s.handleDialMove, "gesture_dial"))
	r.Post("/gestures/dial/end", MetricsMiddleware(s.handleDialEnd, "gesture_dial"))
	r.Post("/gestures/dial/text", MetricsMiddleware(s.handleDialText, "gesture_dial"))
	r.Get("/gestures/dial/passive", MetricsMiddleware(s.handleDialPassive, "gesture_dial"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates a state container error into a response.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNoDraft):
		writeError(w, http.StatusNotFound, "no_draft", err)
	case errors.Is(err, service.ErrDraftMismatch):
		writeError(w, http.StatusConflict, "draft_mismatch", err)
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, service.ErrInvalidHour),
		errors.Is(err, service.ErrUnknownCity),
		errors.Is(err, service.ErrInvalidTime),
		errors.Is(err, service.ErrInvalidModal),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, repository.ErrInvalidEvent),
		errors.Is(err, repository.ErrDraftID),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

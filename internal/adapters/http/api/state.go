package api

import (
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/okian/kairosync/internal/domain/model"
	"github.com/okian/kairosync/internal/domain/types"
	"github.com/okian/kairosync/pkg/logger"
)

type timeRequest struct {
	UTCMinutes *float64   `json:"utcMinutes,omitempty"`
	Text       string     `json:"text,omitempty"`
	Role       types.Role `json:"role,omitempty"`
}

type timeResponse struct {
	SelectedUTC float64 `json:"selectedUtc"`
}

type dayRequest struct {
	DayOffset int `json:"dayOffset"`
}

type dayResponse struct {
	DayOffset int `json:"dayOffset"`
}

type modalRequest struct {
	Modal types.Modal `json:"modal"`
}

type sleepRequest struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type sleepResponse struct {
	SleepSlots []int `json:"sleepSlots"`
}

type locationRequest struct {
	City string `json:"city"`
}

// handleState handles GET /state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Snapshot(r.Context()))
}

// handleGetUser handles GET /users/{role}.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := s.deps.User(r.Context(), role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePutUser handles PUT /users/{role} with a full profile.
func (s *Server) handlePutUser(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var p model.UserProfile
	if err := decodeJSON(r, &p); err != nil {
		writeServiceError(w, err)
		return
	}
	updated, err := s.deps.SetUser(r.Context(), role, p)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.logger.Info(r.Context(), "profile replaced",
		logger.String("request_id", RequestIDFrom(r.Context())),
		logger.String("role", string(role)),
	)
	writeJSON(w, http.StatusOK, updated)
}

// handlePutSleep handles PUT /users/{role}/sleep.
func (s *Server) handlePutSleep(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req sleepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	slots, err := s.deps.SetSleepSchedule(r.Context(), role, req.Start, req.End)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sleepResponse{SleepSlots: slots})
}

// handlePutLocation handles PUT /users/{role}/location.
func (s *Server) handlePutLocation(w http.ResponseWriter, r *http.Request) {
	role, err := roleParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req locationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := s.deps.SetLocation(r.Context(), role, req.City)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCities handles GET /cities?q=.
func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.SearchCities(r.URL.Query().Get("q")))
}

// handlePutTime handles PUT /time with either utcMinutes or text typed in a
// user's local time.
func (s *Server) handlePutTime(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	switch {
	case req.UTCMinutes != nil:
		if math.IsNaN(*req.UTCMinutes) || math.IsInf(*req.UTCMinutes, 0) {
			writeServiceError(w, fmt.Errorf("%w: utcMinutes must be finite", ErrBadRequest))
			return
		}
		writeJSON(w, http.StatusOK, timeResponse{SelectedUTC: s.deps.SetTime(r.Context(), *req.UTCMinutes)})
	case strings.TrimSpace(req.Text) != "":
		role := req.Role
		if role == "" {
			role = types.RoleLocal
		}
		utc, err := s.deps.EnterTime(r.Context(), req.Text, role)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, timeResponse{SelectedUTC: float64(utc)})
	default:
		writeServiceError(w, fmt.Errorf("%w: utcMinutes or text is required", ErrBadRequest))
	}
}

// handleResetTime handles POST /time/reset.
func (s *Server) handleResetTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, timeResponse{SelectedUTC: s.deps.ResetToNow(r.Context())})
}

// handlePutDay handles PUT /day.
func (s *Server) handlePutDay(w http.ResponseWriter, r *http.Request) {
	var req dayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{DayOffset: s.deps.SetDayOffset(r.Context(), req.DayOffset)})
}

// handlePutModal handles PUT /modal. The "none" modal closes any open one.
func (s *Server) handlePutModal(w http.ResponseWriter, r *http.Request) {
	var req modalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.deps.OpenModal(r.Context(), req.Modal); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, modalRequest{Modal: req.Modal})
}

// handleDeleteModal handles DELETE /modal.
func (s *Server) handleDeleteModal(w http.ResponseWriter, r *http.Request) {
	s.deps.CloseModal(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleGolden handles GET /golden?at=. Without at it checks the selected
// minute.
func (s *Server) handleGolden(w http.ResponseWriter, r *http.Request) {
	at, err := queryInt(r, "at", s.selectedMinute(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.GoldenWindow(r.Context(), at))
}

// handleNextGolden handles GET /golden/next?from=.
func (s *Server) handleNextGolden(w http.ResponseWriter, r *http.Request) {
	from, err := queryInt(r, "from", s.selectedMinute(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.NextGoldenWindow(r.Context(), from))
}

func (s *Server) selectedMinute(r *http.Request) int {
	return int(math.Floor(s.deps.Snapshot(r.Context()).SelectedUTC))
}

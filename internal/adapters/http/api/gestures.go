package api

import (
	"net/http"

	"github.com/okian/kairosync/internal/domain/types"
)

type pointerRequest struct {
	Y float64 `json:"y"`
}

type dialPointerRequest struct {
	PX float64 `json:"px"`
	PY float64 `json:"py"`
	CX float64 `json:"cx"`
	CY float64 `json:"cy"`
}

type dialSelectRequest struct {
	Role types.Role `json:"role"`
}

type dialTextRequest struct {
	Text string `json:"text"`
}

type gestureResponse struct {
	Active      bool    `json:"active"`
	SelectedUTC float64 `json:"selectedUtc"`
}

type passiveResponse struct {
	Role         types.Role `json:"role"`
	LocalMinutes int        `json:"localMinutes"`
}

// handleHelixStart handles POST /gestures/helix/start.
func (s *Server) handleHelixStart(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	started := s.deps.BeginDrag(r.Context(), req.Y)
	writeJSON(w, http.StatusOK, gestureResponse{Active: started, SelectedUTC: s.deps.Snapshot(r.Context()).SelectedUTC})
}

// handleHelixMove handles POST /gestures/helix/move.
func (s *Server) handleHelixMove(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	utc, moved := s.deps.Drag(r.Context(), req.Y)
	writeJSON(w, http.StatusOK, gestureResponse{Active: moved, SelectedUTC: utc})
}

// handleHelixEnd handles POST /gestures/helix/end.
func (s *Server) handleHelixEnd(w http.ResponseWriter, r *http.Request) {
	utc, ended := s.deps.EndDrag(r.Context())
	if !ended {
		writeJSON(w, http.StatusOK, gestureResponse{SelectedUTC: s.deps.Snapshot(r.Context()).SelectedUTC})
		return
	}
	writeJSON(w, http.StatusOK, gestureResponse{Active: true, SelectedUTC: float64(utc)})
}

// handleDialSelect handles POST /gestures/dial/select.
func (s *Server) handleDialSelect(w http.ResponseWriter, r *http.Request) {
	var req dialSelectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	tr, err := s.deps.DialSelect(r.Context(), req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// handleDialStart handles POST /gestures/dial/start.
func (s *Server) handleDialStart(w http.ResponseWriter, r *http.Request) {
	started := s.deps.DialBegin(r.Context())
	writeJSON(w, http.StatusOK, gestureResponse{Active: started, SelectedUTC: s.deps.Snapshot(r.Context()).SelectedUTC})
}

// handleDialMove handles POST /gestures/dial/move.
func (s *Server) handleDialMove(w http.ResponseWriter, r *http.Request) {
	var req dialPointerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	utc, moved := s.deps.DialMove(r.Context(), req.PX, req.PY, req.CX, req.CY)
	writeJSON(w, http.StatusOK, gestureResponse{Active: moved, SelectedUTC: utc})
}

// handleDialEnd handles POST /gestures/dial/end.
func (s *Server) handleDialEnd(w http.ResponseWriter, r *http.Request) {
	ended := s.deps.DialEnd(r.Context())
	writeJSON(w, http.StatusOK, gestureResponse{Active: ended, SelectedUTC: s.deps.Snapshot(r.Context()).SelectedUTC})
}

// handleDialText handles POST /gestures/dial/text.
func (s *Server) handleDialText(w http.ResponseWriter, r *http.Request) {
	var req dialTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	utc, err := s.deps.DialEnterText(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gestureResponse{Active: true, SelectedUTC: float64(utc)})
}

// handleDialPassive handles GET /gestures/dial/passive.
func (s *Server) handleDialPassive(w http.ResponseWriter, r *http.Request) {
	role, minutes := s.deps.PassiveTime(r.Context())
	writeJSON(w, http.StatusOK, passiveResponse{Role: role, LocalMinutes: minutes})
}

package service

import (
	"context"
	"fmt"

	"github.com/okian/kairosync/internal/domain/gesture"
	"github.com/okian/kairosync/internal/domain/types"
	"github.com/okian/kairosync/pkg/metrics"
)

// BeginDrag starts a vertical drag at pointerY. It returns false while a
// drag is already in progress.
func (s *Service) BeginDrag(ctx context.Context, pointerY float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.helix.Start(pointerY, s.selected)
}

// Drag moves the selected minute with the pointer.
func (s *Service) Drag(ctx context.Context, pointerY float64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	utc, ok := s.helix.Move(pointerY)
	if !ok {
		return s.selected, false
	}
	s.live = false
	s.setSelectedLocked(utc)
	return s.selected, true
}

// EndDrag snaps the selected minute to the quarter hour and leaves live mode.
func (s *Service) EndDrag(ctx context.Context) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapped, ended := s.helix.End()
	if !ended {
		return snapped, false
	}
	s.live = false
	s.setSelectedLocked(float64(snapped))
	metrics.RecordGestureEnd("helix")
	return snapped, true
}

// DialSelect makes role the user the dial represents.
func (s *Service) DialSelect(ctx context.Context, role types.Role) (gesture.Transition, error) {
	if !role.Valid() {
		return gesture.Transition{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialRole = role
	return s.dial.SetActive(s.profile(role).TimezoneOffset, s.selected), nil
}

// DialBegin starts a dial gesture.
func (s *Service) DialBegin(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dial.Begin()
}

// DialMove maps a pointer around the dial center to the selected minute.
func (s *Service) DialMove(ctx context.Context, px, py, cx, cy float64) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	utc, ok := s.dial.Move(px, py, cx, cy)
	if !ok {
		return s.selected, false
	}
	s.live = false
	s.selected = utc
	metrics.UpdateSelectedUTC(utc)
	return utc, true
}

// DialEnd finishes a dial gesture.
func (s *Service) DialEnd(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dial.End() {
		return false
	}
	metrics.RecordGestureEnd("dial")
	return true
}

// DialEnterText applies "HH:MM" typed in the dial's active user's local time.
func (s *Service) DialEnterText(ctx context.Context, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	utc, ok := s.dial.EnterText(text)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, text)
	}
	s.live = false
	s.selected = float64(utc)
	metrics.UpdateSelectedUTC(s.selected)
	return utc, nil
}

// PassiveTime returns the local minutes of the user the dial does not show.
func (s *Service) PassiveTime(ctx context.Context) (types.Role, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	passive := s.dialRole.Other()
	return passive, s.dial.PassiveMinutes(s.profile(passive).TimezoneOffset)
}

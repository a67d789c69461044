package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/okian/kairosync/internal/adapters/repository"
	"github.com/okian/kairosync/internal/domain/model"
	tm "github.com/okian/kairosync/internal/domain/timemodel"
	"github.com/okian/kairosync/internal/domain/types"
	"github.com/okian/kairosync/pkg/logger"
	"github.com/okian/kairosync/pkg/metrics"
)

// CreateDraft opens a new unsaved event of type t at the selected minute on
// the current day. It replaces any draft already being edited.
func (s *Service) CreateDraft(ctx context.Context, t model.EventType) (model.CalendarEvent, error) {
	if !t.Valid() {
		return model.CalendarEvent{}, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := model.CalendarEvent{
		ID:          s.nextDraftIDLocked(),
		Type:        t,
		UTCMinutes:  int(math.Floor(s.selected)),
		Duration:    model.DefaultDurationMinutes,
		Title:       t.DefaultTitle(),
		IsConfirmed: true,
		DayOffset:   s.dayOffset,
	}
	s.draft = &d
	metrics.RecordDraftCreated(string(t))
	s.logger.Debug(ctx, "draft created", logger.String("id", d.ID), logger.String("type", string(t)))
	return d, nil
}

// nextDraftIDLocked returns the current unix millis with the draft prefix,
// bumped past the last draft id handed out. Must be called with s.mu held.
func (s *Service) nextDraftIDLocked() string {
	ms := s.now().UnixMilli()
	if ms <= s.lastDraft {
		ms = s.lastDraft + 1
	}
	s.lastDraft = ms
	return model.DraftPrefix + strconv.FormatInt(ms, 10)
}

// Draft returns the event being edited.
func (s *Service) Draft(ctx context.Context) (model.CalendarEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return model.CalendarEvent{}, false
	}
	return *s.draft, true
}

// UpdateDraft replaces the fields of the event being edited. The id must
// match it.
func (s *Service) UpdateDraft(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, error) {
	if !ev.Type.Valid() {
		return model.CalendarEvent{}, fmt.Errorf("%w: %q", ErrInvalidType, ev.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return model.CalendarEvent{}, ErrNoDraft
	}
	if ev.ID != s.draft.ID {
		return model.CalendarEvent{}, fmt.Errorf("%w: %s", ErrDraftMismatch, ev.ID)
	}
	ev = normalizeEvent(ev)
	s.draft = &ev
	return ev, nil
}

// DiscardDraft closes the editor without saving. It leaves no trace.
func (s *Service) DiscardDraft(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = nil
}

func normalizeEvent(ev model.CalendarEvent) model.CalendarEvent {
	ev.UTCMinutes = tm.NormalizeMinutes(ev.UTCMinutes)
	if ev.Duration < model.MinDurationMinutes {
		ev.Duration = model.MinDurationMinutes
	}
	if ev.DayOffset < 0 {
		ev.DayOffset = 0
	}
	if ev.Title == "" {
		ev.Title = ev.Type.DefaultTitle()
	}
	return ev
}

// SaveDraft saves the event being edited.
func (s *Service) SaveDraft(ctx context.Context) (model.CalendarEvent, error) {
	d, ok := s.Draft(ctx)
	if !ok {
		return model.CalendarEvent{}, ErrNoDraft
	}
	return s.SaveEvent(ctx, d)
}

// SaveEvent stores ev. A draft id gets a fresh numeric id; saving the same
// draft id again returns the event its first save created. The id of a
// stored event replaces it in place; any other id is replaced by a fresh
// one. Saving closes the editor when ev is the event being edited and shows
// the calendar.
func (s *Service) SaveEvent(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, error) {
	if !ev.Type.Valid() {
		return model.CalendarEvent{}, fmt.Errorf("%w: %q", ErrInvalidType, ev.Type)
	}
	ev = normalizeEvent(ev)

	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.storeLocked(ctx, ev)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	if s.draft != nil && (s.draft.ID == ev.ID || s.draft.ID == saved.ID) {
		s.draft = nil
		s.modal = types.ModalCalendar
	}
	return saved, nil
}

// storeLocked writes ev through the ledger. Must be called with s.mu held.
func (s *Service) storeLocked(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, error) {
	if !ev.IsDraft() {
		if !s.storedLocked(ctx, ev.ID) {
			if ev.ID != "" {
				s.logger.Debug(ctx, "unknown id replaced", logger.String("id", ev.ID))
			}
			ev.ID = s.events.NextID(ctx)
		}
		if _, err := s.events.Upsert(ctx, ev); err != nil {
			return model.CalendarEvent{}, err
		}
		metrics.RecordEventSaved()
		s.logger.Info(ctx, "event saved", logger.String("id", ev.ID), logger.Int("utc", ev.UTCMinutes))
		return ev, nil
	}

	draftID := ev.ID
	newID := s.events.NextID(ctx)
	if existing, seen := s.ledger.Claim(ctx, draftID, newID); seen {
		metrics.RecordDraftDuplicateSave()
		stored, err := s.events.Get(ctx, existing)
		if err == nil {
			s.logger.Debug(ctx, "draft already saved", logger.String("draft", draftID), logger.String("id", existing))
			return stored, nil
		}
		// The earlier event was removed behind the ledger's back; save anew.
		s.ledger.Release(ctx, draftID)
		s.ledger.Claim(ctx, draftID, newID)
	}

	ev.ID = newID
	if _, err := s.events.Upsert(ctx, ev); err != nil {
		s.ledger.Release(ctx, draftID)
		return model.CalendarEvent{}, err
	}
	metrics.RecordEventSaved()
	s.logger.Info(ctx, "event saved",
		logger.String("draft", draftID),
		logger.String("id", ev.ID),
		logger.Int("utc", ev.UTCMinutes),
		logger.Int("day", ev.DayOffset),
	)
	return ev, nil
}

// storedLocked reports whether id names a saved event.
func (s *Service) storedLocked(ctx context.Context, id string) bool {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return false
	}
	_, err := s.events.Get(ctx, id)
	return err == nil
}

// EditEvent loads a saved event into the editor and closes any modal.
func (s *Service) EditEvent(ctx context.Context, id string) (model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, err := s.events.Get(ctx, id)
	if err != nil {
		return model.CalendarEvent{}, err
	}
	s.draft = &ev
	s.modal = types.ModalNone
	return ev, nil
}

// DeleteEvent removes a saved event. The editor closes if it held it.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.ledger.ReleaseSaved(ctx, id)
	if s.draft != nil && s.draft.ID == id {
		s.draft = nil
	}
	metrics.RecordEventDeleted()
	s.logger.Info(ctx, "event deleted", logger.String("id", id))
	return nil
}

// Events returns saved events in agenda order.
func (s *Service) Events(ctx context.Context) []model.CalendarEvent {
	return s.events.List(ctx)
}

// DayEvents returns the saved events of one day.
func (s *Service) DayEvents(ctx context.Context, dayOffset int) []model.CalendarEvent {
	return s.events.Day(ctx, dayOffset)
}

// Event returns one saved event.
func (s *Service) Event(ctx context.Context, id string) (model.CalendarEvent, error) {
	return s.events.Get(ctx, id)
}

// ImportEvents saves events read from an external feed. Events that fail to
// save are skipped and counted.
func (s *Service) ImportEvents(ctx context.Context, events []model.CalendarEvent) (saved, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if !ev.Type.Valid() {
			skipped++
			continue
		}
		if _, err := s.storeLocked(ctx, normalizeEvent(ev)); err != nil {
			if !errors.Is(err, repository.ErrInvalidEvent) {
				s.logger.Warn(ctx, "import failed", logger.String("id", ev.ID), logger.Error(err))
			}
			skipped++
			continue
		}
		saved++
	}
	return saved, skipped
}

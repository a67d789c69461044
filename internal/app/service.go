// Package service is the application state container: both profiles, the
// selected and real time, day navigation, live mode, the open modal, the
// event being edited and the pointer mappers. Every transport drives the
// same Service.
package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/kairosync/internal/adapters/repository"
	"github.com/okian/kairosync/internal/domain/cities"
	"github.com/okian/kairosync/internal/domain/dedupe"
	"github.com/okian/kairosync/internal/domain/gesture"
	"github.com/okian/kairosync/internal/domain/model"
	tm "github.com/okian/kairosync/internal/domain/timemodel"
	"github.com/okian/kairosync/internal/domain/types"
	"github.com/okian/kairosync/pkg/logger"
	"github.com/okian/kairosync/pkg/metrics"
)

// DefaultMaxDayOffset is how many days ahead the day navigation reaches.
const DefaultMaxDayOffset = 3

// Service holds the application state. All methods are safe for concurrent use.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	events repository.Store
	ledger dedupe.Ledger
	cities *cities.Table
	now    func() time.Time
	logger logger.Logger

	// Profiles
	local  model.UserProfile
	remote model.UserProfile

	// Timeline
	selected     float64 // shared UTC minute, [0,1440)
	real         int     // host UTC minute at the last tick
	dayOffset    int
	maxDayOffset int
	live         bool

	// UI state
	modal     types.Modal
	draft     *model.CalendarEvent
	lastDraft int64 // unix millis of the last draft id

	// Mappers
	helixOpts []gesture.Option
	helix     *gesture.LinearDrag
	dial      *gesture.Dial
	dialRole  types.Role
}

// New constructs a Service seeded with the default profiles, live at the
// current host time.
func New(opts ...Option) *Service {
	s := &Service{
		now:          time.Now,
		logger:       logger.Discard(),
		local:        model.DefaultLocalProfile(),
		remote:       model.DefaultRemoteProfile(),
		maxDayOffset: DefaultMaxDayOffset,
		live:         true,
		modal:        types.ModalNone,
		dialRole:     types.RoleLocal,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.events == nil {
		s.events = repository.NewTreapStore(repository.WithClock(s.now))
	}
	if s.ledger == nil {
		s.ledger = dedupe.NewInMemoryLedger()
	}
	if s.cities == nil {
		s.cities = cities.Default()
	}

	s.real = utcMinuteOf(s.now())
	s.selected = float64(s.real)
	s.helix = gesture.NewLinearDrag(s.helixOpts...)
	s.dial = gesture.NewDial(s.selected, s.local.TimezoneOffset)
	metrics.UpdateSelectedUTC(s.selected)
	return s
}

func utcMinuteOf(t time.Time) int {
	u := t.UTC()
	return u.Hour()*tm.MinutesInHour + u.Minute()
}

func (s *Service) profile(role types.Role) *model.UserProfile {
	if role == types.RoleRemote {
		return &s.remote
	}
	return &s.local
}

// setSelectedLocked updates the selected minute and re-aligns the dial.
// Must be called with s.mu held.
func (s *Service) setSelectedLocked(utc float64) {
	s.selected = tm.NormalizeFloat(utc)
	s.dial.Sync(s.selected)
	metrics.UpdateSelectedUTC(s.selected)
}

// clockLocked builds one user's view. Must be called with s.mu held.
func (s *Service) clockLocked(role types.Role) types.UserClock {
	u := s.profile(role)
	other := s.profile(role.Other())
	utc := int(math.Floor(s.selected))
	local := tm.LocalMinutes(utc, u.TimezoneOffset)
	tod := tm.TimeOfDayAt(local)
	return types.UserClock{
		Role:         role,
		Profile:      u.Clone(),
		LocalMinutes: local,
		LocalTime:    tm.FormatTime(float64(local)),
		TimeOfDay:    tod,
		Status:       tm.StatusOf(*u, utc),
		SkyColor:     tm.SkyColor(tod),
		Weather:      tm.WeatherAt(utc, u.TimezoneOffset, u.Location),
		Avatar:       u.Avatar(),
		AvatarColor:  u.Color(),
		DayShift:     tm.DayShift(utc, other.TimezoneOffset, u.TimezoneOffset),
	}
}

// Snapshot returns a consistent copy of the whole state.
func (s *Service) Snapshot(ctx context.Context) types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	utc := int(math.Floor(s.selected))
	snap := types.Snapshot{
		Local:       s.clockLocked(types.RoleLocal),
		Remote:      s.clockLocked(types.RoleRemote),
		SelectedUTC: s.selected,
		RealUTC:     s.real,
		DayOffset:   s.dayOffset,
		Live:        s.live,
		Synced:      math.Abs(s.selected-float64(s.real)) < 1 && s.dayOffset == 0,
		Modal:       s.modal,
		Golden:      tm.IsGoldenWindow(s.local, s.remote, utc),
		DiffLabel:   tm.RelativeTimeDiffLabel(s.local.TimezoneOffset, s.remote.TimezoneOffset),
		Events:      s.events.List(ctx),
		Dial: types.DialView{
			ActiveRole: s.dialRole,
			Rotation:   s.dial.Rotation(),
			Degrees:    s.dial.Degrees(),
			Dragging:   s.dial.Dragging(),
		},
		Dragging: s.helix.Dragging(),
	}
	if c, ok := s.countdownLocked(); ok {
		snap.Countdown = c
	}
	if s.draft != nil {
		d := *s.draft
		snap.Draft = &d
	}
	return snap
}

func (s *Service) countdownLocked() (string, bool) {
	for _, u := range []model.UserProfile{s.local, s.remote} {
		if c, ok := tm.Countdown(u.SyncDate, s.now()); ok {
			return c, true
		}
	}
	return "", false
}

// User returns a copy of the profile for role.
func (s *Service) User(ctx context.Context, role types.Role) (model.UserProfile, error) {
	if !role.Valid() {
		return model.UserProfile{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile(role).Clone(), nil
}

func validateProfile(p model.UserProfile) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.TimezoneOffset < -12 || p.TimezoneOffset > 14 {
		return fmt.Errorf("%w: offset %v out of range", ErrInvalidProfile, p.TimezoneOffset)
	}
	if !p.Mood.Valid() {
		return fmt.Errorf("%w: mood %q", ErrInvalidProfile, p.Mood)
	}
	for _, slots := range [][]int{p.BusySlots, p.SleepSlots} {
		for _, h := range slots {
			if h < 0 || h >= tm.HoursInDay {
				return fmt.Errorf("%w: %w: %d", ErrInvalidProfile, ErrInvalidHour, h)
			}
		}
	}
	return nil
}

// SetUser replaces the whole profile for role. An empty id keeps the old one.
func (s *Service) SetUser(ctx context.Context, role types.Role, p model.UserProfile) (model.UserProfile, error) {
	if !role.Valid() {
		return model.UserProfile{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if err := validateProfile(p); err != nil {
		return model.UserProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.profile(role)
	if p.ID == "" {
		p.ID = cur.ID
	}
	*cur = p.Clone()
	s.realignDialLocked(role)
	s.logger.Info(ctx, "profile updated",
		logger.String("role", string(role)),
		logger.String("location", p.Location),
		logger.Float64("offset", p.TimezoneOffset),
	)
	return cur.Clone(), nil
}

// realignDialLocked keeps the dial on the selected minute after the active
// user's offset changed. Must be called with s.mu held.
func (s *Service) realignDialLocked(role types.Role) {
	if role == s.dialRole {
		s.dial.SetActive(s.profile(role).TimezoneOffset, s.selected)
	}
}

// SetSleepSchedule replaces the sleep slots of role with the hours from
// start up to end, wrapping at midnight. start == end clears them.
func (s *Service) SetSleepSchedule(ctx context.Context, role types.Role, start, end int) ([]int, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if start < 0 || start >= tm.HoursInDay || end < 0 || end >= tm.HoursInDay {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidHour, start, end)
	}
	slots := tm.GenerateSleepSlots(start, end)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile(role).SleepSlots = append([]int(nil), slots...)
	return slots, nil
}

// SetLocation moves role to a city from the table, taking its offset.
func (s *Service) SetLocation(ctx context.Context, role types.Role, city string) (model.UserProfile, error) {
	if !role.Valid() {
		return model.UserProfile{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	c, ok := s.cities.Lookup(city)
	if !ok {
		return model.UserProfile{}, fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profile(role)
	p.Location = c.Name
	p.TimezoneOffset = c.Offset
	s.realignDialLocked(role)
	return p.Clone(), nil
}

// SearchCities returns table rows matching q.
func (s *Service) SearchCities(q string) []cities.City {
	return s.cities.Search(q)
}

// Cities returns the whole city table in order.
func (s *Service) Cities() []cities.City {
	return s.cities.All()
}

// SetTime moves the selected minute and leaves live mode.
func (s *Service) SetTime(ctx context.Context, utc float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = false
	s.setSelectedLocked(utc)
	return s.selected
}

// EnterTime applies "HH:MM" typed in role's local time. Invalid text leaves
// the state untouched and returns ErrInvalidTime.
func (s *Service) EnterTime(ctx context.Context, text string, role types.Role) (int, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	utc, ok := s.helix.EnterText(text, s.profile(role).TimezoneOffset)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, text)
	}
	s.live = false
	s.setSelectedLocked(float64(utc))
	return utc, nil
}

// SetDayOffset moves the day navigation, clamped to [0, max].
func (s *Service) SetDayOffset(ctx context.Context, d int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dayOffset = max(0, min(d, s.maxDayOffset))
	return s.dayOffset
}

// ResetToNow returns to today, the host time and live mode, and closes any
// modal.
func (s *Service) ResetToNow(ctx context.Context) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.real = utcMinuteOf(s.now())
	s.dayOffset = 0
	s.live = true
	s.modal = types.ModalNone
	s.setSelectedLocked(float64(s.real))
	return s.selected
}

// Tick records the host time. The selected minute follows it only in live
// mode with no event being edited and no modal open.
func (s *Service) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.real = utcMinuteOf(now)
	if s.live && s.draft == nil && s.modal == types.ModalNone {
		if s.selected != float64(s.real) {
			s.setSelectedLocked(float64(s.real))
		}
	}
}

// OpenModal shows m. The time jump modal also leaves live mode.
func (s *Service) OpenModal(ctx context.Context, m types.Modal) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidModal, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = m
	if m == types.ModalTimeJump {
		s.live = false
	}
	return nil
}

// CloseModal hides any open modal.
func (s *Service) CloseModal(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modal = types.ModalNone
}

// GoldenWindow reports whether utc is free for both users.
func (s *Service) GoldenWindow(ctx context.Context, utc int) types.GoldenResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	utc = tm.NormalizeMinutes(utc)
	golden := tm.IsGoldenWindow(s.local, s.remote, utc)
	metrics.RecordGoldenLookup("at", golden)
	return s.goldenResultLocked(utc, golden, true)
}

// NextGoldenWindow scans forward one day from utc.
func (s *Service) NextGoldenWindow(ctx context.Context, from int) types.GoldenResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	utc, ok := tm.NextGoldenWindow(s.local, s.remote, from)
	metrics.RecordGoldenLookup("next", ok)
	if !ok {
		return types.GoldenResult{UTCMinutes: tm.NormalizeMinutes(from)}
	}
	return s.goldenResultLocked(utc, true, true)
}

func (s *Service) goldenResultLocked(utc int, golden, found bool) types.GoldenResult {
	return types.GoldenResult{
		UTCMinutes: utc,
		Golden:     golden,
		Found:      found,
		LocalTime:  tm.FormatTime(float64(tm.LocalMinutes(utc, s.local.TimezoneOffset))),
		RemoteTime: tm.FormatTime(float64(tm.LocalMinutes(utc, s.remote.TimezoneOffset))),
	}
}

// Stats summarizes the state.
func (s *Service) Stats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Stats{
		Events:      s.events.Count(ctx),
		Drafting:    s.draft != nil,
		Live:        s.live,
		SelectedUTC: s.selected,
		DayOffset:   s.dayOffset,
		OffsetDiff:  tm.RelativeOffsetDiff(s.local.TimezoneOffset, s.remote.TimezoneOffset),
		Cities:      s.cities.Len(),
	}
}

package service

import (
	"time"

	"github.com/okian/kairosync/internal/adapters/repository"
	"github.com/okian/kairosync/internal/domain/cities"
	"github.com/okian/kairosync/internal/domain/dedupe"
	"github.com/okian/kairosync/internal/domain/gesture"
	"github.com/okian/kairosync/internal/domain/model"
	"github.com/okian/kairosync/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore replaces the event store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.events = store
		}
	}
}

// WithLedger replaces the draft save ledger.
func WithLedger(l dedupe.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithCities replaces the city table.
func WithCities(t *cities.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.cities = t
		}
	}
}

// WithUsers sets the initial profiles.
func WithUsers(local, remote model.UserProfile) Option {
	return func(s *Service) {
		s.local = local.Clone()
		s.remote = remote.Clone()
	}
}

// WithClock replaces the host clock used for the initial time, draft ids
// and ResetToNow.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxDayOffset bounds day navigation to [0, n].
func WithMaxDayOffset(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxDayOffset = n
		}
	}
}

// WithGestureOptions configures the linear drag mapper.
func WithGestureOptions(opts ...gesture.Option) Option {
	return func(s *Service) {
		s.helixOpts = append(s.helixOpts, opts...)
	}
}

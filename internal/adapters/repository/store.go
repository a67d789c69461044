// Package repository holds saved calendar events in display order.
package repository

import (
	"context"

	"github.com/okian/kairosync/internal/domain/model"
)

// Store provides read/write access to saved events.
type Store interface {
	// NextID mints a unique numeric id derived from the current unix millis.
	NextID(ctx context.Context) string
	// Upsert inserts ev or replaces the stored event with the same id.
	// It reports whether an existing event was replaced.
	Upsert(ctx context.Context, ev model.CalendarEvent) (bool, error)
	// Get returns the event with id or ErrNotFound.
	Get(ctx context.Context, id string) (model.CalendarEvent, error)
	// Delete removes the event with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// List returns all events ordered by (dayOffset, utcMinutes, id).
	List(ctx context.Context) []model.CalendarEvent
	// Day returns the events of one day offset in display order.
	Day(ctx context.Context, dayOffset int) []model.CalendarEvent
	// Count returns the number of stored events.
	Count(ctx context.Context) int
}

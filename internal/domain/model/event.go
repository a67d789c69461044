// Package model contains domain models passed between layers.
package model

import (
	"strings"
)

// EventType enumerates the kinds of shared moments.
type EventType string

// Event types.
const (
	EventCall   EventType = "call"
	EventDate   EventType = "date"
	EventSleep  EventType = "sleep"
	EventOther  EventType = "other"
	EventMemory EventType = "memory"
)

// DraftPrefix marks an event that has not been saved yet.
const DraftPrefix = "draft-"

// Event limits.
const (
	MinDurationMinutes     = 15
	DefaultDurationMinutes = 60
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventCall, EventDate, EventSleep, EventOther, EventMemory:
		return true
	}
	return false
}

// DefaultTitle returns the title a new event of this type starts with.
func (t EventType) DefaultTitle() string {
	switch t {
	case EventCall:
		return "Call"
	case EventDate:
		return "Date Night"
	case EventSleep:
		return "Sleep Sync"
	default:
		return "Event"
	}
}

// CalendarEvent is a scheduled shared moment on the date-less UTC timeline.
type CalendarEvent struct {
	ID          string    `json:"id" yaml:"id"`
	Type        EventType `json:"type" yaml:"type"`
	UTCMinutes  int       `json:"utcMinutes" yaml:"utc_minutes"` // [0,1440)
	Duration    int       `json:"duration" yaml:"duration"`      // minutes, >= 15
	Title       string    `json:"title" yaml:"title"`
	IsConfirmed bool      `json:"isConfirmed" yaml:"is_confirmed"`
	DayOffset   int       `json:"dayOffset" yaml:"day_offset"` // 0 = today
	Note        string    `json:"note,omitempty" yaml:"note,omitempty"`
}

// IsDraft reports whether the event has not been saved yet.
func (e CalendarEvent) IsDraft() bool {
	return strings.HasPrefix(e.ID, DraftPrefix)
}

// Package timemodel holds the pure arithmetic behind the shared timeline:
// UTC-minute normalization, local hours, busy/sleep status and the golden
// window search. Every function is total.
package timemodel

import (
	"fmt"
	"math"

	"github.com/okian/kairosync/internal/domain/model"
)

// Timeline constants.
const (
	MinutesInDay  = 1440
	MinutesInHour = 60
	HoursInDay    = 24

	// GoldenStepMinutes and GoldenSteps bound the forward golden window scan
	// to one day.
	GoldenStepMinutes = 30
	GoldenSteps       = MinutesInDay / GoldenStepMinutes
)

// TimeOfDay buckets a local hour.
type TimeOfDay string

// Buckets.
const (
	Morning TimeOfDay = "Morning"
	Day     TimeOfDay = "Day"
	Evening TimeOfDay = "Evening"
	Night   TimeOfDay = "Night"
)

// Status summarizes what a user is doing at an instant.
type Status string

// Statuses. Resting wins over Occupied when both sets contain the hour.
const (
	Available Status = "AVAILABLE"
	Occupied  Status = "OCCUPIED"
	Resting   Status = "RESTING"
)

// NormalizeMinutes maps any minute count into [0,1440).
func NormalizeMinutes(m int) int {
	return ((m % MinutesInDay) + MinutesInDay) % MinutesInDay
}

// NormalizeFloat is NormalizeMinutes for fractional minute values.
func NormalizeFloat(m float64) float64 {
	r := math.Mod(m, MinutesInDay)
	if r < 0 {
		r += MinutesInDay
	}
	if r >= MinutesInDay {
		r = 0
	}
	return r
}

// OffsetMinutes converts a signed hour offset (5.5 allowed) to whole minutes.
func OffsetMinutes(offsetHours float64) int {
	return int(math.Round(offsetHours * MinutesInHour))
}

// LocalMinutes converts a shared UTC minute to minutes since local midnight.
func LocalMinutes(utcMinutes int, offsetHours float64) int {
	return NormalizeMinutes(utcMinutes + OffsetMinutes(offsetHours))
}

// ToUTC converts minutes since local midnight back to the shared UTC minute.
func ToUTC(localMinutes int, offsetHours float64) int {
	return NormalizeMinutes(localMinutes - OffsetMinutes(offsetHours))
}

// LocalHour returns the local hour [0,23] at utcMinutes.
func LocalHour(utcMinutes int, offsetHours float64) int {
	return LocalMinutes(utcMinutes, offsetHours) / MinutesInHour
}

// TimeOfDayAt classifies local minutes.
func TimeOfDayAt(localMinutes int) TimeOfDay {
	hour := NormalizeMinutes(localMinutes) / MinutesInHour
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Day
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// IsBusy reports whether the user's local hour at utcMinutes is a busy slot.
func IsBusy(u model.UserProfile, utcMinutes int) bool {
	return u.HasBusy(LocalHour(utcMinutes, u.TimezoneOffset))
}

// IsSleeping reports whether the user's local hour at utcMinutes is a sleep slot.
func IsSleeping(u model.UserProfile, utcMinutes int) bool {
	return u.HasSleep(LocalHour(utcMinutes, u.TimezoneOffset))
}

// StatusOf returns the user's status at utcMinutes.
func StatusOf(u model.UserProfile, utcMinutes int) Status {
	switch {
	case IsSleeping(u, utcMinutes):
		return Resting
	case IsBusy(u, utcMinutes):
		return Occupied
	default:
		return Available
	}
}

// IsGoldenWindow reports whether both users are neither busy nor asleep.
func IsGoldenWindow(a, b model.UserProfile, utcMinutes int) bool {
	return !IsBusy(a, utcMinutes) && !IsBusy(b, utcMinutes) &&
		!IsSleeping(a, utcMinutes) && !IsSleeping(b, utcMinutes)
}

// NextGoldenWindow scans forward from startUTC in 30-minute steps across one
// day and returns the first normalized UTC minute that is a golden window.
func NextGoldenWindow(a, b model.UserProfile, startUTC int) (int, bool) {
	for i := 0; i < GoldenSteps; i++ {
		check := NormalizeMinutes(startUTC + i*GoldenStepMinutes)
		if IsGoldenWindow(a, b, check) {
			return check, true
		}
	}
	return 0, false
}

// RelativeOffsetDiff is the unsigned difference of two offsets. It does not
// wrap around the 24h clock, so +13 and -10 report 23.
func RelativeOffsetDiff(offsetA, offsetB float64) float64 {
	return math.Abs(offsetA - offsetB)
}

// RelativeTimeDiffLabel formats RelativeOffsetDiff as "<n>H DIFF".
func RelativeTimeDiffLabel(offsetA, offsetB float64) string {
	return fmt.Sprintf("%sH DIFF", formatHours(RelativeOffsetDiff(offsetA, offsetB)))
}

func formatHours(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%d", int(h))
	}
	return fmt.Sprintf("%g", h)
}

// GenerateSleepSlots walks hours from start up to end (exclusive), wrapping
// at midnight. start == end yields no slots, so "asleep all day" cannot be
// expressed.
func GenerateSleepSlots(start, end int) []int {
	start = normalizeHour(start)
	end = normalizeHour(end)
	slots := make([]int, 0, HoursInDay)
	for current := start; current != end; current = (current + 1) % HoursInDay {
		slots = append(slots, current)
	}
	return slots
}

func normalizeHour(h int) int {
	return ((h % HoursInDay) + HoursInDay) % HoursInDay
}

// DayShift tells whether the passive user's clock sits on the previous (-1),
// same (0) or next (+1) calendar day relative to the active user's.
func DayShift(utcMinutes int, activeOffset, passiveOffset float64) int {
	activeHour := float64(LocalHour(utcMinutes, activeOffset))
	diff := passiveOffset - activeOffset
	switch {
	case activeHour+diff >= HoursInDay:
		return 1
	case activeHour+diff < 0:
		return -1
	default:
		return 0
	}
}

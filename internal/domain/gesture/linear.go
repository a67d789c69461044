// Package gesture maps continuous pointer input onto the shared UTC-minute
// timeline. Both mappers emit values in [0,1440).
package gesture

import (
	"math"

	tm "github.com/okian/kairosync/internal/domain/timemodel"
)

// Default linear drag configuration.
const (
	DefaultStepHeight  = 160.0 // pixels per hour row
	DefaultSnapMinutes = 15
)

// Option configures a LinearDrag.
type Option func(*LinearDrag)

// WithStepHeight sets how many pixels of vertical drag equal one hour.
func WithStepHeight(px float64) Option {
	return func(d *LinearDrag) {
		if px > 0 {
			d.stepHeight = px
		}
	}
}

// WithSnapMinutes sets the release snapping grid.
func WithSnapMinutes(m int) Option {
	return func(d *LinearDrag) {
		if m > 0 {
			d.snapMinutes = m
		}
	}
}

// LinearDrag is the vertical drag list model. Dragging up moves time forward.
type LinearDrag struct {
	stepHeight  float64
	snapMinutes int

	dragging  bool
	startY    float64
	startTime float64
	current   float64
}

// NewLinearDrag creates a drag model.
func NewLinearDrag(opts ...Option) *LinearDrag {
	d := &LinearDrag{
		stepHeight:  DefaultStepHeight,
		snapMinutes: DefaultSnapMinutes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dragging reports whether a gesture is in progress.
func (d *LinearDrag) Dragging() bool { return d.dragging }

// Current returns the latest unsnapped value.
func (d *LinearDrag) Current() float64 { return d.current }

// Start captures the pointer position and time value. It returns false if a
// gesture is already in progress.
func (d *LinearDrag) Start(pointerY, currentUTC float64) bool {
	if d.dragging {
		return false
	}
	d.dragging = true
	d.startY = pointerY
	d.startTime = tm.NormalizeFloat(currentUTC)
	d.current = d.startTime
	return true
}

// Move converts the vertical delta since Start into a new UTC value.
func (d *LinearDrag) Move(pointerY float64) (float64, bool) {
	if !d.dragging {
		return d.current, false
	}
	deltaY := pointerY - d.startY
	minutesDelta := -(deltaY / d.stepHeight) * tm.MinutesInHour
	d.current = tm.NormalizeFloat(d.startTime + minutesDelta)
	return d.current, true
}

// End finishes the gesture and snaps to the nearest grid line. ended is the
// drag-end signal; it is false when no gesture was in progress.
func (d *LinearDrag) End() (snapped int, ended bool) {
	if !d.dragging {
		return tm.NormalizeMinutes(int(math.Floor(d.current))), false
	}
	d.dragging = false
	snapped = Snap(d.current, d.snapMinutes)
	d.current = float64(snapped)
	return snapped, true
}

// EnterText applies a typed "HH:MM" in the local time of a user at
// offsetHours. Invalid text leaves the value untouched.
func (d *LinearDrag) EnterText(text string, offsetHours float64) (int, bool) {
	utc, ok := TextToUTC(text, offsetHours)
	if !ok {
		return 0, false
	}
	d.current = float64(utc)
	return utc, true
}

// Snap rounds minutes to the nearest multiple of grid and re-normalizes.
func Snap(minutes float64, grid int) int {
	if grid <= 0 {
		grid = DefaultSnapMinutes
	}
	g := float64(grid)
	return tm.NormalizeMinutes(int(math.Round(minutes/g) * g))
}

// TextToUTC parses "HH:MM" as local time at offsetHours and converts it to
// the shared UTC minute.
func TextToUTC(text string, offsetHours float64) (int, bool) {
	local, ok := tm.ParseTime(text)
	if !ok {
		return 0, false
	}
	return tm.ToUTC(local, offsetHours), true
}

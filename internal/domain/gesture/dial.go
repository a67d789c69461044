package gesture

import (
	"math"

	tm "github.com/okian/kairosync/internal/domain/timemodel"
)

const fullTurn = 360.0

// Transition describes a rotation change a renderer may animate.
type Transition struct {
	From    float64 `json:"from"`
	To      float64 `json:"to"`
	Animate bool    `json:"animate"`
}

// Dial is the circular wheel model. rotation is an unbounded accumulator in
// degrees; it is only normalized when read through Degrees.
type Dial struct {
	rotation     float64
	activeOffset float64
	dragging     bool
}

// NewDial creates a dial showing utcMinutes in the local time of the user at
// activeOffset.
func NewDial(utcMinutes, activeOffset float64) *Dial {
	return &Dial{
		rotation:     RotationFromUTC(utcMinutes, activeOffset),
		activeOffset: activeOffset,
	}
}

// RotationFromUTC returns the [0,360) angle of utcMinutes for a user at offset.
func RotationFromUTC(utcMinutes, offsetHours float64) float64 {
	local := tm.NormalizeFloat(utcMinutes + float64(tm.OffsetMinutes(offsetHours)))
	return local * fullTurn / tm.MinutesInDay
}

func normalizeDegrees(d float64) float64 {
	r := math.Mod(d, fullTurn)
	if r < 0 {
		r += fullTurn
	}
	if r >= fullTurn {
		r = 0
	}
	return r
}

// Rotation returns the raw accumulator.
func (d *Dial) Rotation() float64 { return d.rotation }

// Degrees returns the rotation normalized to [0,360).
func (d *Dial) Degrees() float64 { return normalizeDegrees(d.rotation) }

// ActiveOffset returns the offset of the user the dial represents.
func (d *Dial) ActiveOffset() float64 { return d.activeOffset }

// Dragging reports whether a gesture is in progress.
func (d *Dial) Dragging() bool { return d.dragging }

// ActiveMinutes returns the active user's local minutes shown by the dial.
func (d *Dial) ActiveMinutes() int {
	return int(math.Floor(d.Degrees() * tm.MinutesInDay / fullTurn))
}

// UTC returns the shared UTC minute shown by the dial.
func (d *Dial) UTC() int {
	return tm.ToUTC(d.ActiveMinutes(), d.activeOffset)
}

// PassiveMinutes returns the corresponding local minutes for another user.
func (d *Dial) PassiveMinutes(passiveOffset float64) int {
	return tm.LocalMinutes(d.UTC(), passiveOffset)
}

// Begin starts a gesture. It returns false if one is already in progress.
func (d *Dial) Begin() bool {
	if d.dragging {
		return false
	}
	d.dragging = true
	return true
}

// Move maps a pointer position around center (cx, cy) to a UTC minute.
// Angle 0 is the top of the dial and means local midnight.
func (d *Dial) Move(px, py, cx, cy float64) (float64, bool) {
	if !d.dragging {
		return float64(d.UTC()), false
	}
	angle := math.Atan2(py-cy, px-cx)*180/math.Pi + 90
	angle = normalizeDegrees(angle)
	d.rotation = angle

	activeLocal := angle * tm.MinutesInDay / fullTurn
	utc := tm.NormalizeFloat(activeLocal - float64(tm.OffsetMinutes(d.activeOffset)))
	return utc, true
}

// End finishes the gesture.
func (d *Dial) End() bool {
	if !d.dragging {
		return false
	}
	d.dragging = false
	return true
}

// SetActive switches the dial to another user. When no gesture is in
// progress the rotation moves to the equivalent angle along the shorter arc
// and the returned transition is animated.
func (d *Dial) SetActive(offsetHours, utcMinutes float64) Transition {
	d.activeOffset = offsetHours
	if d.dragging {
		return Transition{From: d.rotation, To: d.rotation}
	}
	return d.moveTo(RotationFromUTC(utcMinutes, offsetHours), true)
}

// Sync re-aligns the dial after the time changed elsewhere. It does nothing
// while a gesture is in progress.
func (d *Dial) Sync(utcMinutes float64) Transition {
	if d.dragging {
		return Transition{From: d.rotation, To: d.rotation}
	}
	return d.moveTo(RotationFromUTC(utcMinutes, d.activeOffset), false)
}

// EnterText applies a typed "HH:MM" in the active user's local time.
func (d *Dial) EnterText(text string) (int, bool) {
	local, ok := tm.ParseTime(text)
	if !ok {
		return 0, false
	}
	d.moveTo(float64(local)*fullTurn/tm.MinutesInDay, false)
	return tm.ToUTC(local, d.activeOffset), true
}

func (d *Dial) moveTo(target float64, animate bool) Transition {
	from := d.rotation
	to := ShortestTarget(from, target)
	d.rotation = to
	return Transition{From: from, To: to, Animate: animate}
}

// ShortestTarget returns the accumulator value equivalent to target (an
// angle in [0,360)) that is reached from current by turning at most 180°.
func ShortestTarget(current, target float64) float64 {
	delta := target - normalizeDegrees(current)
	if delta > fullTurn/2 {
		delta -= fullTurn
	} else if delta < -fullTurn/2 {
		delta += fullTurn
	}
	return current + delta
}

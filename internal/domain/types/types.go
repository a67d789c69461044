// Package types contains the read shapes shared by the state container and
// its transports.
package types

import (
	"github.com/okian/kairosync/internal/domain/model"
	tm "github.com/okian/kairosync/internal/domain/timemodel"
)

// Role names one side of the pair.
type Role string

// Roles.
const (
	RoleLocal  Role = "local"
	RoleRemote Role = "remote"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleLocal || r == RoleRemote }

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleLocal {
		return RoleRemote
	}
	return RoleLocal
}

// Modal is the overlay currently open. At most one is open at a time.
type Modal string

// Modals.
const (
	ModalNone           Modal = "none"
	ModalCalendar       Modal = "calendar"
	ModalTimeJump       Modal = "timejump"
	ModalSettingsLocal  Modal = "settings-local"
	ModalSettingsRemote Modal = "settings-remote"
)

// Valid reports whether m is a known modal.
func (m Modal) Valid() bool {
	switch m {
	case ModalNone, ModalCalendar, ModalTimeJump, ModalSettingsLocal, ModalSettingsRemote:
		return true
	}
	return false
}

// UserClock is one user's view of the selected instant.
type UserClock struct {
	Role         Role              `json:"role"`
	Profile      model.UserProfile `json:"profile"`
	LocalMinutes int               `json:"localMinutes"`
	LocalTime    string            `json:"localTime"`
	TimeOfDay    tm.TimeOfDay      `json:"timeOfDay"`
	Status       tm.Status         `json:"status"`
	SkyColor     string            `json:"skyColor"`
	Weather      tm.Weather        `json:"weather"`
	Avatar       string            `json:"avatar"`
	AvatarColor  string            `json:"avatarColor"`
	DayShift     int               `json:"dayShift"` // relative to the other user
}

// DialView is the read side of the circular mapper.
type DialView struct {
	ActiveRole Role    `json:"activeRole"`
	Rotation   float64 `json:"rotation"`
	Degrees    float64 `json:"degrees"`
	Dragging   bool    `json:"dragging"`
}

// Snapshot is a consistent copy of the whole application state.
type Snapshot struct {
	Local       UserClock             `json:"local"`
	Remote      UserClock             `json:"remote"`
	SelectedUTC float64               `json:"selectedUtc"`
	RealUTC     int                   `json:"realUtc"`
	DayOffset   int                   `json:"dayOffset"`
	Live        bool                  `json:"live"`
	Synced      bool                  `json:"synced"` // selected equals real time on today
	Modal       Modal                 `json:"modal"`
	Golden      bool                  `json:"golden"`
	DiffLabel   string                `json:"diffLabel"`
	Countdown   string                `json:"countdown,omitempty"`
	Draft       *model.CalendarEvent  `json:"draft,omitempty"`
	Events      []model.CalendarEvent `json:"events"`
	Dial        DialView              `json:"dial"`
	Dragging    bool                  `json:"dragging"`
}

// GoldenResult answers "is this minute golden" and "when is the next one".
type GoldenResult struct {
	UTCMinutes int    `json:"utcMinutes"`
	Golden     bool   `json:"golden"`
	Found      bool   `json:"found"`
	LocalTime  string `json:"localTime,omitempty"`
	RemoteTime string `json:"remoteTime,omitempty"`
}

// Stats summarizes the container for the stats endpoint.
type Stats struct {
	Events      int     `json:"events"`
	Drafting    bool    `json:"drafting"`
	Live        bool    `json:"live"`
	SelectedUTC float64 `json:"selectedUtc"`
	DayOffset   int     `json:"dayOffset"`
	OffsetDiff  float64 `json:"offsetDiff"`
	Cities      int     `json:"cities"`
}

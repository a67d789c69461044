package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mood is an ambient mood a user can advertise.
type Mood string

// Moods.
const (
	MoodFocused Mood = "focused"
	MoodLonging Mood = "longing"
	MoodJoyful  Mood = "joyful"
	MoodResting Mood = "resting"
	MoodActive  Mood = "active"
)

// Valid reports whether m is empty or a known mood.
func (m Mood) Valid() bool {
	switch m {
	case "", MoodFocused, MoodLonging, MoodJoyful, MoodResting, MoodActive:
		return true
	}
	return false
}

// DefaultAvatarColor is used when a profile carries no color.
const DefaultAvatarColor = "bg-slate-500"

// UserProfile describes one side of the pair.
// BusySlots and SleepSlots hold local hours in [0,23].
type UserProfile struct {
	ID             string  `json:"id" yaml:"id" koanf:"id"`
	Name           string  `json:"name" yaml:"name" koanf:"name"`
	Location       string  `json:"location" yaml:"location" koanf:"location"`
	TimezoneOffset float64 `json:"timezoneOffset" yaml:"timezone_offset" koanf:"timezone_offset"`
	AvatarColor    string  `json:"avatarColor" yaml:"avatar_color" koanf:"avatar_color"`
	AvatarEmoji    string  `json:"avatarEmoji,omitempty" yaml:"avatar_emoji,omitempty" koanf:"avatar_emoji"`
	AvatarImage    string  `json:"avatarImage,omitempty" yaml:"avatar_image,omitempty" koanf:"avatar_image"`
	BusySlots      []int   `json:"busySlots" yaml:"busy_slots" koanf:"busy_slots"`
	SleepSlots     []int   `json:"sleepSlots" yaml:"sleep_slots" koanf:"sleep_slots"`
	CurrentStatus  string  `json:"currentStatus,omitempty" yaml:"current_status,omitempty" koanf:"current_status"`
	Mood           Mood    `json:"mood,omitempty" yaml:"mood,omitempty" koanf:"mood"`
	SyncDate       string  `json:"syncDate,omitempty" yaml:"sync_date,omitempty" koanf:"sync_date"`
}

// HasBusy reports whether hour is in the busy set.
func (u UserProfile) HasBusy(hour int) bool { return containsHour(u.BusySlots, hour) }

// HasSleep reports whether hour is in the sleep set.
func (u UserProfile) HasSleep(hour int) bool { return containsHour(u.SleepSlots, hour) }

func containsHour(slots []int, hour int) bool {
	for _, h := range slots {
		if h == hour {
			return true
		}
	}
	return false
}

// Avatar returns what to show for the user: emoji, else initials.
func (u UserProfile) Avatar() string {
	if u.AvatarEmoji != "" {
		return u.AvatarEmoji
	}
	return Initials(u.Name)
}

// Color returns the avatar color or the default one.
func (u UserProfile) Color() string {
	if u.AvatarColor == "" {
		return DefaultAvatarColor
	}
	return u.AvatarColor
}

// City returns the part of Location before the first comma.
func (u UserProfile) City() string {
	city, _, _ := strings.Cut(u.Location, ",")
	return strings.TrimSpace(city)
}

// Clone returns a deep copy so callers cannot alias slot slices.
func (u UserProfile) Clone() UserProfile {
	c := u
	c.BusySlots = append([]int(nil), u.BusySlots...)
	c.SleepSlots = append([]int(nil), u.SleepSlots...)
	return c
}

// Initials returns up to two upper-cased initials of name.
func Initials(name string) string {
	var b strings.Builder
	n := 0
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 2 {
			break
		}
	}
	return b.String()
}

// DefaultLocalProfile is the seed profile of the local user.
func DefaultLocalProfile() UserProfile {
	return UserProfile{
		ID:             "u1",
		Name:           "Alex",
		Location:       "Taipei",
		TimezoneOffset: 8,
		AvatarColor:    "bg-indigo-500",
		BusySlots:      []int{9, 10, 11, 13, 14, 15, 16, 17, 18},
		SleepSlots:     []int{23, 0, 1, 2, 3, 4, 5, 6, 7},
	}
}

// DefaultRemoteProfile is the seed profile of the remote user.
func DefaultRemoteProfile() UserProfile {
	return UserProfile{
		ID:             "u2",
		Name:           "Jamie",
		Location:       "London",
		TimezoneOffset: 0,
		AvatarColor:    "bg-rose-500",
		BusySlots:      []int{9, 10, 11, 12, 14, 15, 16, 17},
		SleepSlots:     []int{23, 0, 1, 2, 3, 4, 5, 6},
	}
}

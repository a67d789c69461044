package timemodel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// FormatTime renders minutes as "HH:MM" after flooring and normalizing.
func FormatTime(minutes float64) string {
	m := NormalizeMinutes(int(math.Floor(minutes)))
	return fmt.Sprintf("%02d:%02d", m/MinutesInHour, m%MinutesInHour)
}

// ParseTime parses "HH:MM" into minutes since midnight. ok is false when the
// text is malformed or out of range (0<=H<24, 0<=M<60).
func ParseTime(text string) (int, bool) {
	hStr, mStr, found := strings.Cut(strings.TrimSpace(text), ":")
	if !found {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(hStr))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(mStr))
	if err != nil {
		return 0, false
	}
	if h < 0 || h >= HoursInDay || m < 0 || m >= MinutesInHour {
		return 0, false
	}
	return h*MinutesInHour + m, true
}

// SkyColor returns the backdrop color for a time of day.
func SkyColor(tod TimeOfDay) string {
	switch tod {
	case Morning:
		return "#fdba74"
	case Day:
		return "#38bdf8"
	case Evening:
		return "#818cf8"
	default:
		return "#0f172a"
	}
}

// Weather is a deterministic stand-in forecast for a user's location.
type Weather struct {
	Temp      int    `json:"temp"`
	Icon      string `json:"icon"`
	Condition string `json:"condition"`
}

// WeatherAt derives a stable pseudo-forecast from the location name and the
// local hour. Night hours (before 06 or after 20) show a moon.
func WeatherAt(utcMinutes int, offsetHours float64, location string) Weather {
	hour := LocalHour(utcMinutes, offsetHours)
	seed := utf8.RuneCountInString(location) + hour
	w := Weather{Temp: 15 + seed%15, Icon: "sun", Condition: "Clear"}
	if hour < 6 || hour > 20 {
		w.Icon = "moon"
	}
	return w
}

// Countdown returns "<n> DAYS" until target or "TODAY" once it is reached.
// target is an RFC 3339 timestamp or a YYYY-MM-DD date. ok is false when
// target is empty or unparseable.
func Countdown(target string, now time.Time) (string, bool) {
	if strings.TrimSpace(target) == "" {
		return "", false
	}
	t, err := time.Parse(time.RFC3339, target)
	if err != nil {
		t, err = time.Parse(time.DateOnly, target)
		if err != nil {
			return "", false
		}
	}
	days := int(math.Ceil(t.Sub(now).Hours() / HoursInDay))
	if days > 0 {
		return fmt.Sprintf("%d DAYS", days), true
	}
	return "TODAY", true
}

// Package config defines process configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file, then
// KAIRO_ environment variables. Nested keys use "__" in env names, e.g.
// KAIRO_USERS__REMOTE__TIMEZONE_OFFSET=-5.
package config

import (
	"github.com/okian/kairosync/internal/domain/model"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TickSpec is the cron spec of the live clock.
	TickSpec string `koanf:"tick_spec"`

	// StepHeight is the pixel height of one hour on the helix.
	StepHeight float64 `koanf:"step_height"`

	// SnapMinutes is the grid a helix drag snaps to on release.
	SnapMinutes int `koanf:"snap_minutes"`

	// CitiesFile replaces the built-in city table when set.
	CitiesFile string `koanf:"cities_file"`

	// MaxDayOffset caps how many days ahead the view can move.
	MaxDayOffset int `koanf:"max_day_offset"`

	// DraftLedgerSize bounds the saved-draft ledger.
	DraftLedgerSize int `koanf:"draft_ledger_size"`

	// Users seeds the two profiles.
	Users Users `koanf:"users"`

	// Metrics controls the Prometheus collectors.
	Metrics Metrics `koanf:"metrics"`
}

// Metrics configures pkg/metrics.
type Metrics struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	// Instance, when set, is attached to every series as an "instance" label.
	Instance string `koanf:"instance"`
}

// Users holds the seed profiles of both sides.
type Users struct {
	Local  model.UserProfile `koanf:"local"`
	Remote model.UserProfile `koanf:"remote"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       FormatText,
		Addr:            ":9080",
		TickSpec:        "@every 1s",
		StepHeight:      160,
		SnapMinutes:     15,
		MaxDayOffset:    3,
		DraftLedgerSize: 1024,
		Users: Users{
			Local:  model.DefaultLocalProfile(),
			Remote: model.DefaultRemoteProfile(),
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "kairosync",
		},
	}
}

// flatten returns c as koanf keys so the loader can seed defaults that later
// layers replace key by key.
func (c *Config) flatten() map[string]any {
	out := map[string]any{
		"log_level":         c.LogLevel,
		"log_format":        c.LogFormat,
		"addr":              c.Addr,
		"tick_spec":         c.TickSpec,
		"step_height":       c.StepHeight,
		"snap_minutes":      c.SnapMinutes,
		"cities_file":       c.CitiesFile,
		"max_day_offset":    c.MaxDayOffset,
		"draft_ledger_size": c.DraftLedgerSize,
		"metrics.enabled":   c.Metrics.Enabled,
		"metrics.namespace": c.Metrics.Namespace,
		"metrics.instance":  c.Metrics.Instance,
	}
	flattenProfile(out, "users.local.", c.Users.Local)
	flattenProfile(out, "users.remote.", c.Users.Remote)
	return out
}

func flattenProfile(out map[string]any, prefix string, p model.UserProfile) {
	out[prefix+"id"] = p.ID
	out[prefix+"name"] = p.Name
	out[prefix+"location"] = p.Location
	out[prefix+"timezone_offset"] = p.TimezoneOffset
	out[prefix+"avatar_color"] = p.AvatarColor
	out[prefix+"avatar_emoji"] = p.AvatarEmoji
	out[prefix+"avatar_image"] = p.AvatarImage
	out[prefix+"busy_slots"] = append([]int(nil), p.BusySlots...)
	out[prefix+"sleep_slots"] = append([]int(nil), p.SleepSlots...)
	out[prefix+"current_status"] = p.CurrentStatus
	out[prefix+"mood"] = string(p.Mood)
	out[prefix+"sync_date"] = p.SyncDate
}

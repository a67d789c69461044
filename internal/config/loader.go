package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/kairosync/internal/domain/model"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "KAIRO_"

// EnvConfigFile names the variable holding the optional YAML file path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if KAIRO_CONFIG is set
//  3. env (prefix KAIRO_)
func Load(ctx context.Context) (*Config, error) {
	k := koanf.New(".")

	for key, val := range New().flatten() {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("%w: default %s: %v", ErrLoadConfig, key, err)
		}
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// KAIRO_SNAP_MINUTES -> snap_minutes, KAIRO_USERS__LOCAL__NAME -> users.local.name
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.TickSpec == "" {
		return fmt.Errorf("%w: tick_spec must not be empty", ErrInvalidConfig)
	}
	if c.StepHeight <= 0 {
		return fmt.Errorf("%w: step_height must be positive", ErrInvalidConfig)
	}
	if c.SnapMinutes <= 0 || c.SnapMinutes > 60 {
		return fmt.Errorf("%w: snap_minutes must be in (0,60]", ErrInvalidConfig)
	}
	if c.MaxDayOffset < 0 {
		return fmt.Errorf("%w: max_day_offset must not be negative", ErrInvalidConfig)
	}
	if c.DraftLedgerSize < 0 {
		return fmt.Errorf("%w: draft_ledger_size must not be negative", ErrInvalidConfig)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("%w: metrics.namespace must not be empty", ErrInvalidConfig)
	}
	if err := validateProfile("users.local", c.Users.Local); err != nil {
		return err
	}
	if err := validateProfile("users.remote", c.Users.Remote); err != nil {
		return err
	}
	if c.Users.Local.ID == c.Users.Remote.ID {
		return fmt.Errorf("%w: users must have distinct ids", ErrInvalidConfig)
	}
	return nil
}

func validateProfile(key string, p model.UserProfile) error {
	if p.ID == "" || p.Name == "" {
		return fmt.Errorf("%w: %s needs id and name", ErrInvalidConfig, key)
	}
	if p.TimezoneOffset < -12 || p.TimezoneOffset > 14 {
		return fmt.Errorf("%w: %s.timezone_offset %.2f out of range", ErrInvalidConfig, key, p.TimezoneOffset)
	}
	for _, h := range append(append([]int(nil), p.BusySlots...), p.SleepSlots...) {
		if h < 0 || h > 23 {
			return fmt.Errorf("%w: %s has hour %d outside [0,23]", ErrInvalidConfig, key, h)
		}
	}
	if !p.Mood.Valid() {
		return fmt.Errorf("%w: %s.mood %q unknown", ErrInvalidConfig, key, p.Mood)
	}
	return nil
}

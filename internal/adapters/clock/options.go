package clock

import (
	"time"

	"github.com/okian/kairosync/pkg/logger"
)

// Option configures a Runner.
type Option func(*Runner)

// WithSpec sets the cron schedule. Seconds are supported, e.g. "@every 1s"
// or "*/5 * * * * *".
func WithSpec(spec string) Option {
	return func(r *Runner) {
		if spec != "" {
			r.spec = spec
		}
	}
}

// WithNow replaces the host clock.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

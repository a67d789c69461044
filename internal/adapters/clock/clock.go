// Package clock drives the live mode of the timeline: it reads the host clock
// on a schedule and hands the instant to a Ticker.
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/kairosync/pkg/logger"
	"github.com/okian/kairosync/pkg/metrics"
)

// DefaultSpec ticks once per second.
const DefaultSpec = "@every 1s"

// Ticker receives the current instant.
type Ticker interface {
	Tick(ctx context.Context, now time.Time)
}

// TickerFunc adapts a function to Ticker.
type TickerFunc func(ctx context.Context, now time.Time)

// Tick calls f.
func (f TickerFunc) Tick(ctx context.Context, now time.Time) { f(ctx, now) }

// Runner schedules ticks with robfig/cron.
type Runner struct {
	ticker Ticker
	spec   string
	now    func() time.Time
	logger logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	done    chan struct{}
}

// New creates a runner. The schedule is validated here so a bad spec fails
// at startup rather than on Run.
func New(ticker Ticker, opts ...Option) (*Runner, error) {
	r := &Runner{
		ticker: ticker,
		spec:   DefaultSpec,
		now:    time.Now,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := parser().Parse(r.spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSpec, r.spec, err)
	}
	return r, nil
}

func parser() cron.Parser {
	return cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Spec returns the configured schedule.
func (r *Runner) Spec() string { return r.spec }

// TickNow delivers one tick immediately.
func (r *Runner) TickNow(ctx context.Context) {
	r.ticker.Tick(ctx, r.now().UTC())
	metrics.RecordLiveTick()
}

// Run ticks once immediately, then on schedule until ctx is canceled or
// Shutdown is called.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	c := cron.New(
		cron.WithParser(parser()),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(r.spec, func() { r.TickNow(ctx) }); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q: %w", ErrInvalidSpec, r.spec, err)
	}
	r.cron = c
	r.running = true
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	r.logger.Info(ctx, "live clock started", logger.String("spec", r.spec))
	r.TickNow(ctx)
	c.Start()

	select {
	case <-ctx.Done():
	case <-done:
	}

	<-c.Stop().Done()
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.logger.Info(context.Background(), "live clock stopped")
	return nil
}

// Shutdown stops a running schedule and waits for an in-flight tick.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	c := r.cron
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	r.mu.Unlock()

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

package dedupe

// Option applies a configuration option to the in-memory ledger.
type Option func(*inMemoryLedger)

// WithMaxSize sets the maximum number of draft ids to remember.
// If maxSize > 0: bounded mode, the oldest claim is evicted first.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryLedger) {
		d.maxSize = maxSize
	}
}

// Package dedupe makes saving a draft idempotent: the first save of a draft
// id claims a saved event id, and every later save of the same draft gets
// that id back instead of creating a second event.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Ledger maps draft ids to the saved event ids they produced.
type Ledger interface {
	// Claim atomically binds draftID to savedID if draftID is new.
	// When draftID was claimed before it returns the earlier saved id and true.
	Claim(ctx context.Context, draftID, savedID string) (existing string, seen bool)

	// Release forgets draftID. Used when the save that claimed it failed, or
	// when the saved event it points to is deleted.
	Release(ctx context.Context, draftID string)

	// ReleaseSaved forgets whichever draft produced savedID.
	ReleaseSaved(ctx context.Context, savedID string)

	Size() int64
}

type claim struct {
	draftID string
	savedID string
}

// inMemoryLedger keeps claims in a map plus an insertion-ordered list used
// for eviction in bounded mode.
type inMemoryLedger struct {
	mu      sync.Mutex
	byDraft map[string]*list.Element
	bySaved map[string]string
	order   *list.List // front = newest
	maxSize int        // 0 or negative = UNBOUNDED
	size    atomic.Int64
}

// NewInMemoryLedger creates a ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	d := &inMemoryLedger{
		maxSize: 1024,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.byDraft = make(map[string]*list.Element)
	d.bySaved = make(map[string]string)
	d.order = list.New()
	return d
}

func (d *inMemoryLedger) Claim(ctx context.Context, draftID, savedID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.byDraft[draftID]; ok {
		return el.Value.(claim).savedID, true
	}

	if d.maxSize > 0 && len(d.byDraft) >= d.maxSize {
		d.evictOldest()
	}
	d.byDraft[draftID] = d.order.PushFront(claim{draftID: draftID, savedID: savedID})
	d.bySaved[savedID] = draftID
	d.size.Add(1)
	return "", false
}

func (d *inMemoryLedger) Release(ctx context.Context, draftID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(draftID)
}

func (d *inMemoryLedger) ReleaseSaved(ctx context.Context, savedID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if draftID, ok := d.bySaved[savedID]; ok {
		d.removeLocked(draftID)
	}
}

// removeLocked must be called with d.mu held.
func (d *inMemoryLedger) removeLocked(draftID string) {
	el, ok := d.byDraft[draftID]
	if !ok {
		return
	}
	c := d.order.Remove(el).(claim)
	delete(d.byDraft, draftID)
	delete(d.bySaved, c.savedID)
	d.size.Add(-1)
}

// evictOldest drops the earliest claim. Must be called with d.mu held.
func (d *inMemoryLedger) evictOldest() {
	if back := d.order.Back(); back != nil {
		d.removeLocked(back.Value.(claim).draftID)
	}
}

func (d *inMemoryLedger) Size() int64 {
	return d.size.Load()
}

package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/kairosync/internal/domain/model"
	tm "github.com/okian/kairosync/internal/domain/timemodel"
	"github.com/okian/kairosync/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: dayOffset ASC, then utcMinutes ASC, then id ASC (deterministic).
// In-order traversal yields the agenda from earliest to latest.

// key is the ordering key of a stored event.
type key struct {
	day int
	utc int
	id  string
}

func keyOf(ev model.CalendarEvent) key {
	return key{day: ev.DayOffset, utc: ev.UTCMinutes, id: ev.ID}
}

// less returns true if a should appear before b in the agenda.
func less(a, b key) bool {
	if a.day != b.day {
		return a.day < b.day
	}
	if a.utc != b.utc {
		return a.utc < b.utc
	}
	return a.id < b.id
}

// treap node
type node struct {
	k     key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// idPriority hashes the id so the heap shape is independent of insert order.
func idPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, k key) *node {
	if n == nil {
		return &node{k: k, prio: idPriority(k.id), size: 1}
	}
	if less(k, n.k) {
		n.left = insert(n.left, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if k == n.k {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	} else if less(k, n.k) {
		n.left = deleteNode(n.left, k)
	} else {
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// collectAll appends all events in agenda order.
func collectAll(n *node, byID map[string]model.CalendarEvent, out *[]model.CalendarEvent) {
	if n == nil {
		return
	}
	collectAll(n.left, byID, out)
	if ev, ok := byID[n.k.id]; ok {
		*out = append(*out, ev)
	}
	collectAll(n.right, byID, out)
}

// collectDay appends the events of one day, pruning subtrees outside it.
func collectDay(n *node, day int, byID map[string]model.CalendarEvent, out *[]model.CalendarEvent) {
	if n == nil {
		return
	}
	if day <= n.k.day {
		collectDay(n.left, day, byID, out)
	}
	if n.k.day == day {
		if ev, ok := byID[n.k.id]; ok {
			*out = append(*out, ev)
		}
	}
	if day >= n.k.day {
		collectDay(n.right, day, byID, out)
	}
}

// TreapStore keeps saved events in an ordered treap plus an id index.
type TreapStore struct {
	mu     sync.RWMutex
	root   *node
	byID   map[string]model.CalendarEvent
	now    func() time.Time
	lastID int64

	// snapshot is the agenda as of the last write; List reads it lock-free.
	snapshot atomic.Pointer[[]model.CalendarEvent]
}

// NewTreapStore constructs an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]model.CalendarEvent),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	empty := []model.CalendarEvent{}
	s.snapshot.Store(&empty)
	return s
}

// NextID returns the current unix millis as a decimal string, bumped past
// any id already minted or stored.
func (s *TreapStore) NextID(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	for {
		if _, taken := s.byID[strconv.FormatInt(id, 10)]; !taken {
			break
		}
		id++
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(ctx context.Context, ev model.CalendarEvent) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if ev.ID == "" || !ev.Type.Valid() {
		metrics.RecordErrorByComponent("repository", "invalid_event")
		return false, fmt.Errorf("%w: id=%q type=%q", ErrInvalidEvent, ev.ID, ev.Type)
	}
	if ev.IsDraft() {
		metrics.RecordErrorByComponent("repository", "draft_id")
		return false, fmt.Errorf("%w: %s", ErrDraftID, ev.ID)
	}
	ev.UTCMinutes = tm.NormalizeMinutes(ev.UTCMinutes)
	if ev.Duration < model.MinDurationMinutes {
		ev.Duration = model.MinDurationMinutes
	}

	s.mu.Lock()
	old, replaced := s.byID[ev.ID]
	if replaced {
		s.root = deleteNode(s.root, keyOf(old))
	}
	s.byID[ev.ID] = ev
	s.root = insert(s.root, keyOf(ev))
	s.publishSnapshotLocked()
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateStoredEvents(count)
	return replaced, nil
}

// Get returns the event with id.
func (s *TreapStore) Get(ctx context.Context, id string) (model.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.CalendarEvent{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ev, nil
}

// Delete removes the event with id.
func (s *TreapStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	ev, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.root = deleteNode(s.root, keyOf(ev))
	delete(s.byID, id)
	s.publishSnapshotLocked()
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateStoredEvents(count)
	return nil
}

// List returns every event in agenda order.
func (s *TreapStore) List(ctx context.Context) []model.CalendarEvent {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	snap := *s.snapshot.Load()
	return append([]model.CalendarEvent(nil), snap...)
}

// Day returns the events scheduled on dayOffset in agenda order.
func (s *TreapStore) Day(ctx context.Context, dayOffset int) []model.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CalendarEvent, 0)
	collectDay(s.root, dayOffset, s.byID, &out)
	return out
}

// Count returns the number of stored events.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// publishSnapshotLocked rebuilds the agenda snapshot (assumes lock is held).
func (s *TreapStore) publishSnapshotLocked() {
	all := make([]model.CalendarEvent, 0, nsize(s.root))
	collectAll(s.root, s.byID, &all)
	s.snapshot.Store(&all)
}

var _ Store = (*TreapStore)(nil)

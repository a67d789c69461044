package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/okian/kairosync/internal/domain/model"
)

func ev(id string, day, utc int) model.CalendarEvent {
	return model.CalendarEvent{ID: id, Type: model.EventCall, UTCMinutes: utc, Duration: 60, Title: "Call", DayOffset: day}
}

func ids(events []model.CalendarEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if got := store.List(ctx); len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}

	replaced, err := store.Upsert(ctx, ev("1", 0, 600))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replaced {
		t.Error("first insert must not report a replacement")
	}

	got, err := store.Get(ctx, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UTCMinutes != 600 {
		t.Errorf("expected utc 600, got %d", got.UTCMinutes)
	}

	if err := store.Delete(ctx, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTreapStore_AgendaOrder(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	for _, e := range []model.CalendarEvent{
		ev("c", 1, 60),
		ev("a", 0, 900),
		ev("b", 0, 120),
		ev("d", 0, 120),
		ev("e", 2, 0),
	} {
		if _, err := store.Upsert(ctx, e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	want := []string{"b", "d", "a", "c", "e"}
	got := ids(store.List(ctx))
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected order %v, got %v", want, got)
	}

	day0 := ids(store.Day(ctx, 0))
	if fmt.Sprint(day0) != fmt.Sprint([]string{"b", "d", "a"}) {
		t.Errorf("unexpected day 0 agenda %v", day0)
	}
	if day3 := store.Day(ctx, 3); len(day3) != 0 {
		t.Errorf("expected empty day 3, got %v", day3)
	}
}

func TestTreapStore_ReplaceInPlace(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_, _ = store.Upsert(ctx, ev("x", 0, 100))
	_, _ = store.Upsert(ctx, ev("y", 0, 200))

	moved := ev("x", 0, 300)
	moved.Title = "Late call"
	replaced, err := store.Upsert(ctx, moved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !replaced {
		t.Error("expected replacement")
	}
	if store.Count(ctx) != 2 {
		t.Errorf("expected 2 events, got %d", store.Count(ctx))
	}
	got := store.List(ctx)
	if got[1].ID != "x" || got[1].Title != "Late call" {
		t.Errorf("expected replaced event last, got %+v", got)
	}
}

func TestTreapStore_Normalization(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	e := ev("n", 0, -30)
	e.Duration = 5
	if _, err := store.Upsert(ctx, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := store.Get(ctx, "n")
	if got.UTCMinutes != 1410 {
		t.Errorf("expected normalized 1410, got %d", got.UTCMinutes)
	}
	if got.Duration != model.MinDurationMinutes {
		t.Errorf("expected duration clamped to %d, got %d", model.MinDurationMinutes, got.Duration)
	}
}

func TestTreapStore_Rejects(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if _, err := store.Upsert(ctx, ev("", 0, 0)); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent for empty id, got %v", err)
	}
	bad := ev("z", 0, 0)
	bad.Type = "party"
	if _, err := store.Upsert(ctx, bad); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("expected ErrInvalidEvent for unknown type, got %v", err)
	}
	if _, err := store.Upsert(ctx, ev(model.DraftPrefix+"1", 0, 0)); !errors.Is(err, ErrDraftID) {
		t.Errorf("expected ErrDraftID, got %v", err)
	}
}

func TestTreapStore_NextID(t *testing.T) {
	ctx := context.Background()
	fixed := time.UnixMilli(1_700_000_000_000)
	store := NewTreapStore(WithClock(func() time.Time { return fixed }))

	first := store.NextID(ctx)
	second := store.NextID(ctx)
	if first != "1700000000000" {
		t.Errorf("expected millis id, got %s", first)
	}
	if second != "1700000000001" {
		t.Errorf("expected bumped id, got %s", second)
	}

	_, _ = store.Upsert(ctx, ev("1700000000002", 0, 0))
	if third := store.NextID(ctx); third != "1700000000003" {
		t.Errorf("expected id past stored one, got %s", third)
	}
}

func TestTreapStore_RandomizedOrder(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		_, _ = store.Upsert(ctx, ev(fmt.Sprintf("id-%03d", r.Intn(200)), r.Intn(4), r.Intn(1440)))
	}
	for i := 0; i < 100; i++ {
		_ = store.Delete(ctx, fmt.Sprintf("id-%03d", r.Intn(200)))
	}

	all := store.List(ctx)
	if len(all) != store.Count(ctx) {
		t.Fatalf("list length %d differs from count %d", len(all), store.Count(ctx))
	}
	for i := 1; i < len(all); i++ {
		if less(keyOf(all[i]), keyOf(all[i-1])) {
			t.Fatalf("out of order at %d: %+v before %+v", i, all[i-1], all[i])
		}
	}
	if nsize(store.root) != len(all) {
		t.Errorf("treap size %d differs from %d", nsize(store.root), len(all))
	}
}

func TestTreapStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := store.NextID(ctx)
				_, _ = store.Upsert(ctx, ev(id, w%4, i*10))
				_ = store.List(ctx)
			}
		}(w)
	}
	wg.Wait()

	if store.Count(ctx) != 400 {
		t.Errorf("expected 400 unique events, got %d", store.Count(ctx))
	}
}

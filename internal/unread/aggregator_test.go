package unread

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/crmchat/internal/bus"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	gates  map[int]chan struct{}
	direct []map[string]int
	group  map[string]int
	err    error
}

func (f *fakeFetcher) UnreadCounts(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	gate := f.gates[i]
	resp := f.direct[min(i, len(f.direct)-1)]
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakeFetcher) GroupUnreadCounts(context.Context) (map[string]int, error) {
	return f.group, nil
}

type harness struct {
	agg     *Aggregator
	posts   chan func()
	applied []Snapshot
	badges  int
}

func newHarness(f Fetcher, b *bus.Bus) *harness {
	h := &harness{posts: make(chan func(), 8)}
	h.agg = New(Options{
		Fetcher: f,
		Post:    func(fn func()) { h.posts <- fn },
		Apply:   func(s Snapshot) { h.applied = append(h.applied, s) },
		Badge:   BadgeFunc(func() { h.badges++ }),
		Bus:     b,
	})
	return h
}

func (h *harness) step(t *testing.T) {
	t.Helper()
	select {
	case fn := <-h.posts:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refetch completion")
	}
}

func TestTriggerAppliesSnapshot(t *testing.T) {
	f := &fakeFetcher{
		direct: []map[string]int{{"a": 3}},
		group:  map[string]int{"g": 1},
	}
	h := newHarness(f, nil)

	h.agg.Trigger()
	h.step(t)

	if h.agg.Refetches() != 1 {
		t.Fatalf("Refetches = %d, want 1", h.agg.Refetches())
	}
	if len(h.applied) != 1 {
		t.Fatalf("applied %d snapshots, want 1", len(h.applied))
	}
	got := h.applied[0]
	if got.Direct["a"] != 3 || got.Group["g"] != 1 || got.Seq != 1 {
		t.Fatalf("snapshot = %+v", got)
	}
	if h.badges != 1 {
		t.Fatalf("badge refreshed %d times, want 1", h.badges)
	}
}

func TestStaleSnapshotIgnored(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{
		gates:  map[int]chan struct{}{0: gate},
		direct: []map[string]int{{"a": 1}, {"a": 7}},
		group:  map[string]int{},
	}
	h := newHarness(f, nil)

	h.agg.Trigger()
	// Make sure the first fetch holds call index 0 before starting the second.
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		n := f.calls
		f.mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(time.Millisecond)
	}
	h.agg.Trigger()
	h.step(t) // second completes first
	close(gate)
	h.step(t) // first completes late

	if h.agg.Refetches() != 2 {
		t.Fatalf("Refetches = %d, want 2", h.agg.Refetches())
	}
	if len(h.applied) != 1 || h.applied[0].Direct["a"] != 7 {
		t.Fatalf("applied = %+v, want only the newer snapshot", h.applied)
	}
	if h.agg.Applied() != 2 {
		t.Fatalf("Applied = %d, want 2", h.agg.Applied())
	}
}

func TestFetchErrorKeepsCountersAndNotifies(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("notification.", 4)
	defer unsub()

	f := &fakeFetcher{
		direct: []map[string]int{nil},
		err:    errors.New("boom"),
	}
	h := newHarness(f, b)

	h.agg.Trigger()
	h.step(t)

	if len(h.applied) != 0 {
		t.Fatalf("applied = %+v, want none", h.applied)
	}
	if h.badges != 1 {
		t.Fatalf("badge refreshed %d times, want 1", h.badges)
	}
	select {
	case evt := <-ch:
		if evt.Kind != bus.KindNotificationError {
			t.Fatalf("event kind = %s", evt.Kind)
		}
		if n, ok := evt.Payload.(Notice); !ok || n.Seq != 1 {
			t.Fatalf("payload = %#v", evt.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification.error published")
	}
}

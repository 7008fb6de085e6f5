package outbox

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheus3301/crmchat/internal/bus"
	"github.com/matheus3301/crmchat/internal/chat"
	"github.com/matheus3301/crmchat/internal/store"
	"github.com/matheus3301/crmchat/internal/transport"
	"go.uber.org/zap"
)

// mockSender records calls and returns configurable results.
type mockSender struct {
	mu    sync.Mutex
	calls []sendCall
	err   error
}

type sendCall struct {
	Key  chat.Key
	Text string
}

func (m *mockSender) DeliverText(_ context.Context, k chat.Key, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sendCall{Key: k, Text: text})
	return m.err
}

func (m *mockSender) snapshot() []sendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sendCall(nil), m.calls...)
}

type onlineFlag struct{ v atomic.Bool }

func (o *onlineFlag) IsOnline() bool { return o.v.Load() }

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func waitEvent(t *testing.T, ch <-chan bus.Event, kind string) bus.Event {
	t.Helper()
	select {
	case evt := <-ch:
		if evt.Kind != kind {
			t.Fatalf("event kind = %q, want %s", evt.Kind, kind)
		}
		return evt
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for %s", kind)
	}
	return bus.Event{}
}

func TestSenderProcessesPendingMessages(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	mock := &mockSender{}
	s := NewSender(db, mock, b, nil, zap.NewNop())

	queued, unsubQ := b.Subscribe(bus.KindMessageQueued, 10)
	defer unsubQ()
	sent, unsubS := b.Subscribe(bus.KindMessageSent, 10)
	defer unsubS()

	k := chat.DirectKey("a")
	id, err := NewQueue(db, b, zap.NewNop()).Enqueue(k, "hello")
	if err != nil {
		t.Fatal(err)
	}
	waitEvent(t, queued, bus.KindMessageQueued)

	s.Start(context.Background())
	defer s.Stop()

	evt := waitEvent(t, sent, bus.KindMessageSent)
	if r := evt.Payload.(Result); r.ClientMsgID != id || r.Key != k {
		t.Errorf("payload = %+v", r)
	}

	calls := mock.snapshot()
	if len(calls) != 1 || calls[0].Key != k || calls[0].Text != "hello" {
		t.Fatalf("calls = %+v", calls)
	}
	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending, want 0 after send", len(pending))
	}
}

func TestSenderHandlesFailure(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	mock := &mockSender{err: fmt.Errorf("rejected")}
	s := NewSender(db, mock, b, nil, zap.NewNop())

	ch, unsub := b.Subscribe(bus.KindMessageSendFailed, 10)
	defer unsub()

	if err := db.QueueOutbox("c1", chat.GroupKey("g"), "hello"); err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	defer s.Stop()

	evt := waitEvent(t, ch, bus.KindMessageSendFailed)
	if r := evt.Payload.(Result); r.Error != "rejected" {
		t.Errorf("payload = %+v", r)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending, want 0 (should be marked failed)", len(pending))
	}
}

func TestSenderWaitsForOnline(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	mock := &mockSender{}
	online := &onlineFlag{}
	s := NewSender(db, mock, b, online, zap.NewNop())

	ch, unsub := b.Subscribe(bus.KindMessageSent, 10)
	defer unsub()

	if err := db.QueueOutbox("c1", chat.DirectKey("a"), "later"); err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(3 * pollInterval)
	if n := len(mock.snapshot()); n != 0 {
		t.Fatalf("sent %d while offline, want 0", n)
	}

	online.v.Store(true)
	waitEvent(t, ch, bus.KindMessageSent)
}

func TestSenderRequeuesWhenSendIsDeferred(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"disconnected", transport.ErrNotConnected},
		{"upload in progress", transport.ErrBusy},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db := testDB(t)
			mock := &mockSender{err: tc.err}
			s := NewSender(db, mock, nil, nil, zap.NewNop())

			if err := db.QueueOutbox("c1", chat.DirectKey("a"), "one"); err != nil {
				t.Fatal(err)
			}
			if err := db.QueueOutbox("c2", chat.DirectKey("a"), "two"); err != nil {
				t.Fatal(err)
			}

			s.processPending(context.Background())

			if n := len(mock.snapshot()); n != 1 {
				t.Fatalf("attempted %d sends, want 1 (stop after the first refusal)", n)
			}
			pending, err := db.PendingOutbox()
			if err != nil {
				t.Fatal(err)
			}
			if len(pending) != 2 {
				t.Errorf("got %d pending, want 2 (both still queued)", len(pending))
			}
		})
	}
}

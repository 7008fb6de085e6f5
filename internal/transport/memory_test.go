package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	m := NewMemory()
	var got []int
	m.On("receiveMessage", func(Event) { got = append(got, 1) })
	sub := m.On("receiveMessage", func(Event) { got = append(got, 2) })
	m.On("receiveMessage", func(Event) { got = append(got, 3) })
	m.On("other", func(Event) { got = append(got, 99) })

	_ = m.Deliver("receiveMessage", map[string]string{"_id": "m1"})
	m.Off(sub)
	_ = m.Deliver("receiveMessage")

	want := []int{1, 2, 3, 1, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMemoryEmitWhileDisconnected(t *testing.T) {
	m := NewMemory()
	var events []string
	m.On(EventDisconnect, func(Event) { events = append(events, EventDisconnect) })
	m.On(EventConnect, func(Event) { events = append(events, EventConnect) })

	m.SetConnected(false)
	if err := m.Emit("sendMessage", "x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Emit() error = %v, want ErrNotConnected", err)
	}
	if err := m.Stream(context.Background(), func(Emitter) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Stream() error = %v, want ErrNotConnected", err)
	}
	m.SetConnected(false)
	m.SetConnected(true)

	if len(events) != 2 || events[0] != EventDisconnect || events[1] != EventConnect {
		t.Errorf("lifecycle events = %v", events)
	}
	if len(m.Frames()) != 0 {
		t.Errorf("frames recorded while offline: %v", m.Names())
	}
}

func TestStreamExcludesOtherEmits(t *testing.T) {
	m := NewMemory()
	inStream := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = m.Stream(context.Background(), func(e Emitter) error {
			_ = e.Emit("start upload", "a")
			close(inStream)
			<-release
			_ = e.EmitBinary("file chunk", []byte("1"))
			_ = e.EmitBinary("file chunk", []byte("2"))
			return e.Emit("file chunk end")
		})
	}()

	<-inStream
	emitted := make(chan struct{})
	go func() {
		_ = m.Emit("sendMessage", "b")
		close(emitted)
	}()

	select {
	case <-emitted:
		t.Fatal("Emit completed while a stream held the writer")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	wg.Wait()
	<-emitted

	want := []string{"start upload", "file chunk", "file chunk", "file chunk end", "sendMessage"}
	got := m.Names()
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestStreamHonoursContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Stream(ctx, func(e Emitter) error { return e.Emit("start upload") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Stream() error = %v, want context.Canceled", err)
	}
}

func TestFailOn(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	m.FailOn("sendMessage", boom)
	if err := m.Emit("sendMessage"); !errors.Is(err, boom) {
		t.Errorf("Emit() error = %v, want boom", err)
	}
	m.FailOn("sendMessage", nil)
	if err := m.Emit("sendMessage"); err != nil {
		t.Errorf("Emit() error = %v after clearing", err)
	}
}

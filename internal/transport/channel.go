// Package transport carries named chat events between the client and the
// chat server over a persistent, message-oriented connection.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// Local pseudo-events dispatched when the connection comes up or drops.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

// ErrNotConnected is returned by emits while the channel is down.
// Nothing is buffered.
var ErrNotConnected = errors.New("transport: not connected")

// ErrBusy is returned for sends refused while the writer is reserved for
// an upload. Retry once it finishes.
var ErrBusy = errors.New("transport: writer busy with an upload")

// Event is one inbound named event.
type Event struct {
	Name   string
	Args   []json.RawMessage
	Binary []byte
}

// Arg decodes argument i into v.
func (e Event) Arg(i int, v any) error {
	if i >= len(e.Args) {
		return fmt.Errorf("event %q: missing argument %d", e.Name, i)
	}
	return json.Unmarshal(e.Args[i], v)
}

// RawArg returns argument i, or nil when absent.
func (e Event) RawArg(i int) json.RawMessage {
	if i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Handler receives events for one name.
type Handler func(Event)

// Subscription identifies a registered handler for Off.
type Subscription struct {
	event string
	id    uint64
}

// Emitter sends named events.
type Emitter interface {
	Emit(event string, args ...any) error
	EmitBinary(event string, data []byte) error
}

// Channel is a bidirectional named-event connection.
//
// Handlers for one event name run in registration order, on the goroutine
// that reads the connection, so events of one name are seen in arrival
// order. Stream gives fn exclusive use of the writer: no other emit can
// interleave with the frames fn sends.
type Channel interface {
	Emitter
	Stream(ctx context.Context, fn func(Emitter) error) error
	On(event string, h Handler) Subscription
	Off(sub Subscription)
	Connected() bool
}

type handlerEntry struct {
	id uint64
	fn Handler
}

type handlers struct {
	mu      sync.RWMutex
	next    uint64
	byEvent map[string][]handlerEntry
}

func (h *handlers) On(event string, fn Handler) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byEvent == nil {
		h.byEvent = make(map[string][]handlerEntry)
	}
	h.next++
	h.byEvent[event] = append(h.byEvent[event], handlerEntry{id: h.next, fn: fn})
	return Subscription{event: event, id: h.next}
}

func (h *handlers) Off(sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.byEvent[sub.event]
	for i, e := range entries {
		if e.id == sub.id {
			h.byEvent[sub.event] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

func (h *handlers) dispatch(evt Event) {
	h.mu.RLock()
	entries := h.byEvent[evt.Name]
	h.mu.RUnlock()
	for _, e := range entries {
		e.fn(evt)
	}
}

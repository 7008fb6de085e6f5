package transport

import (
	"context"
	"sync"

	"github.com/goccy/go-json"
)

// Frame is one event recorded by Memory.
type Frame struct {
	Event  string
	Args   []json.RawMessage
	Binary []byte
}

// Memory is an in-process Channel. It records every emitted frame and lets
// callers inject inbound events with Deliver.
type Memory struct {
	handlers

	writeMu sync.Mutex

	mu        sync.Mutex
	connected bool
	frames    []Frame
	failOn    map[string]error
	gates     map[string]*gate
}

type gate struct {
	reached chan struct{}
	release chan struct{}
}

var _ Channel = (*Memory)(nil)

// NewMemory returns a connected in-memory channel.
func NewMemory() *Memory {
	return &Memory{
		connected: true,
		failOn:    make(map[string]error),
		gates:     make(map[string]*gate),
	}
}

// SetConnected flips the link state and dispatches connect/disconnect.
func (m *Memory) SetConnected(up bool) {
	m.mu.Lock()
	changed := m.connected != up
	m.connected = up
	m.mu.Unlock()
	if !changed {
		return
	}
	if up {
		m.dispatch(Event{Name: EventConnect})
	} else {
		m.dispatch(Event{Name: EventDisconnect})
	}
}

// FailOn makes emits of event return err (nil clears it).
func (m *Memory) FailOn(event string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, event)
		return
	}
	m.failOn[event] = err
}

// Block makes the next emit of event wait, with the writer held, until
// release is called. reached is closed once that emit is waiting.
func (m *Memory) Block(event string) (reached <-chan struct{}, release func()) {
	g := &gate{reached: make(chan struct{}), release: make(chan struct{})}
	m.mu.Lock()
	m.gates[event] = g
	m.mu.Unlock()
	var once sync.Once
	return g.reached, func() { once.Do(func() { close(g.release) }) }
}

func (m *Memory) wait(event string) {
	m.mu.Lock()
	g := m.gates[event]
	delete(m.gates, event)
	m.mu.Unlock()
	if g != nil {
		close(g.reached)
		<-g.release
	}
}

// Connected reports the simulated link state.
func (m *Memory) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Deliver dispatches an inbound event with JSON-encoded args.
func (m *Memory) Deliver(event string, args ...any) error {
	evt := Event{Name: event}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		evt.Args = append(evt.Args, raw)
	}
	m.dispatch(evt)
	return nil
}

// DeliverRaw dispatches an inbound event whose args are already JSON.
func (m *Memory) DeliverRaw(event string, args ...string) {
	evt := Event{Name: event}
	for _, a := range args {
		evt.Args = append(evt.Args, json.RawMessage(a))
	}
	m.dispatch(evt)
}

// Frames returns a copy of everything emitted so far.
func (m *Memory) Frames() []Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Frame, len(m.frames))
	copy(out, m.frames)
	return out
}

// Names returns the emitted event names in order.
func (m *Memory) Names() []string {
	frames := m.Frames()
	names := make([]string, len(frames))
	for i, f := range frames {
		names[i] = f.Event
	}
	return names
}

// Reset forgets recorded frames.
func (m *Memory) Reset() {
	m.mu.Lock()
	m.frames = nil
	m.mu.Unlock()
}

// Emit records a JSON event.
func (m *Memory) Emit(event string, args ...any) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.emitLocked(event, args)
}

// EmitBinary records a binary event.
func (m *Memory) EmitBinary(event string, data []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.record(Frame{Event: event, Binary: append([]byte(nil), data...)})
}

// Stream runs fn with exclusive use of the writer.
func (m *Memory) Stream(ctx context.Context, fn func(Emitter) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if !m.Connected() {
		return ErrNotConnected
	}
	return fn(&memoryEmitter{ctx: ctx, m: m})
}

func (m *Memory) emitLocked(event string, args []any) error {
	f := Frame{Event: event}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return err
		}
		f.Args = append(f.Args, raw)
	}
	return m.record(f)
}

func (m *Memory) record(f Frame) error {
	m.wait(f.Event)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return ErrNotConnected
	}
	if err := m.failOn[f.Event]; err != nil {
		return err
	}
	m.frames = append(m.frames, f)
	return nil
}

type memoryEmitter struct {
	ctx context.Context
	m   *Memory
}

func (e *memoryEmitter) Emit(event string, args ...any) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	return e.m.emitLocked(event, args)
}

func (e *memoryEmitter) EmitBinary(event string, data []byte) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	return e.m.record(Frame{Event: event, Binary: append([]byte(nil), data...)})
}

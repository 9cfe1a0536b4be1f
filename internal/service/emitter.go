package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Event names emitted by CanvasService.
const (
	EventCanvasChanged = "canvas:changed"
	EventNavigated     = "canvas:navigated"
	EventReloaded      = "canvas:reloaded"
	EventInboxChanged  = "inbox:changed"
	EventStateChanged  = "state:changed"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from whatever shows the canvas
// ─────────────────────────────────────────────────────────────

// EventEmitter is an interface for emitting change notifications to a front end.
// Services receive this interface instead of a concrete transport, which makes
// them independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a zerolog logger at debug level. It is
// the emitter used when no front end is attached.
type LogEmitter struct {
	Logger zerolog.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Logger.Debug().Str("event", event).Interface("data", data).Msg("emit")
}

// MultiEmitter fans an event out to several emitters.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event string, data any) {
	for _, e := range m {
		e.Emit(ctx, event, data)
	}
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Event
	}
	return out
}

// Reset forgets recorded events.
func (m *MockEmitter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = nil
}

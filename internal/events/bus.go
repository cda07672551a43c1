package events

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Handler receives an event payload.
type Handler func(payload any)

type listener struct {
	id int
	fn Handler
}

// Bus is a synchronous event dispatcher. All methods are safe for concurrent
// use, but Emit runs every handler on the calling goroutine before returning.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string][]listener
	once      map[string][]listener
	logger    *log.Logger
}

// NewBus creates an empty Bus. A nil logger silences listener error reports.
func NewBus(logger *log.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]listener),
		once:      make(map[string][]listener),
		logger:    logger,
	}
}

// On registers a persistent listener and returns its unsubscribe function.
func (b *Bus) On(event string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[event] = append(b.listeners[event], listener{id: id, fn: fn})
	return func() { b.off(event, id) }
}

// Once registers a listener that is removed after its first invocation.
// Returns an unsubscribe function usable before the event fires.
func (b *Bus) Once(event string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.once[event] = append(b.once[event], listener{id: id, fn: fn})
	return func() { b.off(event, id) }
}

func (b *Bus) off(event string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = removeListener(b.listeners[event], id)
	b.once[event] = removeListener(b.once[event], id)
}

func removeListener(ls []listener, id int) []listener {
	for i, l := range ls {
		if l.id == id {
			return append(ls[:i:i], ls[i+1:]...)
		}
	}
	return ls
}

// Emit invokes all persistent listeners for event, then all once listeners,
// removing the latter after they fire. A listener panic is recovered and
// logged; remaining listeners still run.
func (b *Bus) Emit(event string, payload any) {
	b.mu.Lock()
	persistent := append([]listener(nil), b.listeners[event]...)
	fireOnce := b.once[event]
	delete(b.once, event)
	b.mu.Unlock()

	for _, l := range persistent {
		b.invoke(event, l, payload)
	}
	for _, l := range fireOnce {
		b.invoke(event, l, payload)
	}
}

func (b *Bus) invoke(event string, l listener, payload any) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("event listener failed", "event", event, "error", r)
		}
	}()
	l.fn(payload)
}

// Clear removes all listeners for a single event.
func (b *Bus) Clear(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, event)
	delete(b.once, event)
}

// ClearAll removes every registered listener.
func (b *Bus) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[string][]listener)
	b.once = make(map[string][]listener)
}

// ListenerCount reports how many listeners (persistent and once) an event has.
func (b *Bus) ListenerCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[event]) + len(b.once[event])
}

package ebus

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

var ErrNoListeners = fmt.Errorf("no one listener registered")

type entry struct {
	id       uint64
	listener Listener
}

type EBus struct {
	listeners map[string][]entry
	nextID    uint64
	mx        sync.RWMutex
}

func New() *EBus {
	return &EBus{
		listeners: make(map[string][]entry),
	}
}

// Subscribe registers a listener for the type of event. It is kept for the
// lifetime of the bus.
func (e *EBus) Subscribe(event any, handler Listener) *EBus {
	e.Listen(event, handler)
	return e
}

// Listen registers a listener and returns a func removing it again.
func (e *EBus) Listen(event any, handler Listener) (cancel func()) {
	e.mx.Lock()
	defer e.mx.Unlock()

	name := reflect.TypeOf(event).Name()

	e.nextID++
	id := e.nextID
	e.listeners[name] = append(e.listeners[name], entry{id: id, listener: handler})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.remove(name, id)
		})
	}
}

func (e *EBus) remove(name string, id uint64) {
	e.mx.Lock()
	defer e.mx.Unlock()

	entries := e.listeners[name]
	for i, en := range entries {
		if en.id == id {
			e.listeners[name] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(e.listeners[name]) == 0 {
		delete(e.listeners, name)
	}
}

// Emit calls every listener of the event type in registration order and
// stops at the first error. Listeners run outside the bus lock, so they may
// emit or (un)subscribe themselves.
func (e *EBus) Emit(ctx context.Context, event any) error {
	name := reflect.TypeOf(event).Name()

	e.mx.RLock()
	entries := make([]entry, len(e.listeners[name]))
	copy(entries, e.listeners[name])
	e.mx.RUnlock()

	if len(entries) == 0 {
		return fmt.Errorf("%w: type %T", ErrNoListeners, event)
	}

	for _, en := range entries {
		if err := en.listener(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

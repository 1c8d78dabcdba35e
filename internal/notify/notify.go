// Package notify is a minimal publish/subscribe observer keyed by event name.
//
// Handlers run synchronously, in registration order, on the emitting
// goroutine. A handler that returns an error or panics is logged and skipped;
// the emitter and the remaining handlers are unaffected.
package notify

import (
	"fmt"
	"log/slog"
)

// Handler receives an event payload.
type Handler[T any] func(payload T) error

// SubscriptionID identifies one registration for Off.
type SubscriptionID uint64

type subscription[T any] struct {
	id      SubscriptionID
	handler Handler[T]
}

// Notifier dispatches payloads of type T to handlers registered per event.
// Not safe for concurrent use.
type Notifier[T any] struct {
	logger *slog.Logger
	nextID SubscriptionID
	subs   map[string][]subscription[T]
}

// New creates a notifier that logs handler failures to logger
// (slog.Default() when nil).
func New[T any](logger *slog.Logger) *Notifier[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier[T]{
		logger: logger,
		subs:   make(map[string][]subscription[T]),
	}
}

// On registers h for event and returns its subscription id.
// The same function may be registered more than once; each registration is
// invoked and removed independently.
func (n *Notifier[T]) On(event string, h Handler[T]) SubscriptionID {
	n.nextID++
	n.subs[event] = append(n.subs[event], subscription[T]{id: n.nextID, handler: h})
	return n.nextID
}

// Off removes a registration. Returns false if id was not registered for event.
func (n *Notifier[T]) Off(event string, id SubscriptionID) bool {
	list := n.subs[event]
	for i, s := range list {
		if s.id != id {
			continue
		}
		next := make([]subscription[T], 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(n.subs, event)
		} else {
			n.subs[event] = next
		}
		return true
	}
	return false
}

// Emit invokes every handler registered for event at the time of the call.
// Returns the number of handlers that failed.
func (n *Notifier[T]) Emit(event string, payload T) int {
	// Off replaces the slice rather than editing it, so this snapshot stays
	// valid if a handler unsubscribes mid-emit.
	list := n.subs[event]
	failed := 0
	for _, s := range list {
		if err := n.invoke(s, payload); err != nil {
			failed++
			n.logger.Error("event handler failed",
				"event", event,
				"subscription", uint64(s.id),
				"error", err,
			)
		}
	}
	return failed
}

// Len returns the number of handlers registered for event.
func (n *Notifier[T]) Len(event string) int {
	return len(n.subs[event])
}

func (n *Notifier[T]) invoke(s subscription[T], payload T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return s.handler(payload)
}

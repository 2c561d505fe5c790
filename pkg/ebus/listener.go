package ebus

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidEvent = errors.New("invalid event type")

// Listener handles one event. Returning an error stops the dispatch.
type Listener func(ctx context.Context, event interface{}) error

// Typed adapts a handler of a concrete event type to a Listener.
func Typed[T any](fn func(ctx context.Context, typed T) error) Listener {
	return func(ctx context.Context, event interface{}) error {
		typed, ok := event.(T)
		if !ok {
			var want T
			return fmt.Errorf("%w: got %T, want %T", ErrInvalidEvent, event, want)
		}
		return fn(ctx, typed)
	}
}

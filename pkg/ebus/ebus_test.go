package ebus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinged struct{ N int }

type ponged struct{}

func TestEBus_Emit(t *testing.T) {
	bus := New()

	var got []int
	bus.Subscribe(pinged{}, Typed(func(ctx context.Context, p pinged) error {
		got = append(got, p.N)
		return nil
	}))

	require.NoError(t, bus.Emit(context.Background(), pinged{N: 1}))
	require.NoError(t, bus.Emit(context.Background(), pinged{N: 2}))
	assert.Equal(t, []int{1, 2}, got)

	err := bus.Emit(context.Background(), ponged{})
	assert.ErrorIs(t, err, ErrNoListeners)
}

func TestEBus_Listen_Cancel(t *testing.T) {
	bus := New()

	calls := 0
	cancel := bus.Listen(pinged{}, func(ctx context.Context, event interface{}) error {
		calls++
		return nil
	})
	bus.Subscribe(pinged{}, func(ctx context.Context, event interface{}) error {
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), pinged{}))
	cancel()
	cancel()
	require.NoError(t, bus.Emit(context.Background(), pinged{}))

	assert.Equal(t, 1, calls)
}

func TestEBus_Listen_CancelLast(t *testing.T) {
	bus := New()

	cancel := bus.Listen(pinged{}, func(ctx context.Context, event interface{}) error {
		return nil
	})
	cancel()

	assert.ErrorIs(t, bus.Emit(context.Background(), pinged{}), ErrNoListeners)
}

func TestEBus_EmitStopsOnError(t *testing.T) {
	bus := New()
	boom := errors.New("boom")

	second := false
	bus.
		Subscribe(pinged{}, func(ctx context.Context, event interface{}) error { return boom }).
		Subscribe(pinged{}, func(ctx context.Context, event interface{}) error {
			second = true
			return nil
		})

	assert.ErrorIs(t, bus.Emit(context.Background(), pinged{}), boom)
	assert.False(t, second)
}

func TestEBus_NestedEmit(t *testing.T) {
	bus := New()

	done := false
	bus.
		Subscribe(pinged{}, func(ctx context.Context, event interface{}) error {
			return bus.Emit(ctx, ponged{})
		}).
		Subscribe(ponged{}, func(ctx context.Context, event interface{}) error {
			done = true
			return nil
		})

	require.NoError(t, bus.Emit(context.Background(), pinged{}))
	assert.True(t, done)
}

func TestTyped_WrongType(t *testing.T) {
	listener := Typed(func(ctx context.Context, p pinged) error { return nil })
	assert.ErrorIs(t, listener(context.Background(), ponged{}), ErrInvalidEvent)
}

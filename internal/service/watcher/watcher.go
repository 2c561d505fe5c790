package watcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/zamyatin-zkex/baseflow/pkg/ebus"
	"go.uber.org/zap"
)

type watch struct {
	frame time.Duration
	fn    func(ctx context.Context) error
}

// Watcher runs periodic jobs, typically emitting a getter's result on the bus.
type Watcher struct {
	eBus   *ebus.EBus
	logger *zap.Logger
	subs   []watch
	mx     sync.Mutex
}

func (w *Watcher) EmitEvery(frame time.Duration, getter func(ctx context.Context) (any, error)) *Watcher {
	return w.RunEvery(frame, func(ctx context.Context) error {
		ins, err := getter(ctx)
		if err != nil {
			return err
		}
		err = w.eBus.Emit(ctx, ins)
		if err != nil && !errors.Is(err, ebus.ErrNoListeners) {
			w.logger.Warn("watcher emit", zap.String("event", name(ins)), zap.Error(err))
		}
		return nil
	})
}

// RunEvery calls fn every frame. An error from fn stops the watcher.
func (w *Watcher) RunEvery(frame time.Duration, fn func(ctx context.Context) error) *Watcher {
	w.mx.Lock()
	defer w.mx.Unlock()

	w.subs = append(w.subs, watch{frame: frame, fn: fn})
	return w
}

func NewWatcher(eBus *ebus.EBus, logger *zap.Logger) *Watcher {
	return &Watcher{
		eBus:   eBus,
		logger: logger,
	}
}

func (w *Watcher) Run(ctx context.Context) error {
	w.mx.Lock()
	defer w.mx.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error)

	for i := range w.subs {
		go func(sub watch) {
			ticker := time.NewTicker(sub.frame)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := sub.fn(ctx); err != nil {
						select {
						case errs <- err:
						case <-ctx.Done():
						}
						return
					}
				}
			}
		}(w.subs[i])
	}

	select {
	case err := <-errs:
		return fmt.Errorf("watcher: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogAny is a bus listener writing every event it gets to logger.
func LogAny(logger *zap.Logger) ebus.Listener {
	return func(ctx context.Context, event interface{}) error {
		logger.Info(name(event), zap.Any("event", event))
		return nil
	}
}

// Tolerant wraps a listener so its failures are logged instead of
// stopping the listeners registered after it.
func Tolerant(logger *zap.Logger, listener ebus.Listener) ebus.Listener {
	return func(ctx context.Context, event interface{}) error {
		if err := listener(ctx, event); err != nil {
			logger.Warn("listener failed", zap.String("event", name(event)), zap.Error(err))
		}
		return nil
	}
}

func name(event any) string {
	return reflect.TypeOf(event).Name()
}

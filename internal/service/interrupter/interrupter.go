package interrupter

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

var ErrInterrupted = fmt.Errorf("got interrupt signal")

// Interrupter ends the app on SIGINT or SIGTERM.
type Interrupter struct {
	Logger *zap.Logger
}

func (i Interrupter) Run(ctx context.Context) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		i.Logger.Info("shutting down", zap.String("signal", sig.String()))
		return fmt.Errorf("%w: %s", ErrInterrupted, sig.String())
	case <-ctx.Done():
		return fmt.Errorf("interrupter: %w", ctx.Err())
	}
}

package app

import (
	"context"

	"go.uber.org/zap"
)

type Service interface {
	Run(ctx context.Context) error
}

func actor(ctx context.Context, service Service, logger *zap.Logger) (func() error, func(err error)) {
	ctx, cancel := context.WithCancelCause(ctx)

	return func() error {
			err := service.Run(ctx)
			logger.Info("service stopped", zap.String("service", name(service)), zap.Error(err))
			return err
		}, func(err error) {
			cancel(err)
		}
}

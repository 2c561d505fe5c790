package app

import (
	"context"
	"fmt"

	"github.com/oklog/run"
	"go.uber.org/zap"
)

type App struct {
	services []Service
	runner   *run.Group
	logger   *zap.Logger
}

func NewApp(logger *zap.Logger) *App {
	return &App{
		services: make([]Service, 0),
		runner:   &run.Group{},
		logger:   logger,
	}
}

func (a *App) WithService(s Service) *App {
	a.services = append(a.services, s)
	return a
}

// Run starts every service and blocks until the first one returns, then
// interrupts the rest and returns that first error.
func (a *App) Run(ctx context.Context) error {
	for _, service := range a.services {
		a.runner.Add(actor(ctx, service, a.logger))
	}

	a.logger.Info("app started", zap.Int("services", len(a.services)))
	return a.runner.Run()
}

func name(service Service) string {
	return fmt.Sprintf("%T", service)
}

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"go.uber.org/zap"
)

// Source is where the server reads the snapshot it starts with.
type Source interface {
	Snapshot() entity.MetricsSnapshot
}

// Commands is the write side exposed over HTTP.
type Commands interface {
	State() entity.CommandState
	CreateInvoice(ctx context.Context, customer, amount string, dueDate int64, metadata string) error
	UpdateInventory(ctx context.Context, itemID string, quantity int64, price string) error
	Reorder(ctx context.Context, item entity.StockItem) error
	ReorderAll(ctx context.Context, items []entity.StockItem) ([]string, error)
}

type Server struct {
	web      *http.Server
	keeper   *keeper
	state    *state
	commands Commands
	logger   *zap.Logger
}

func New(addr string, source Source, commands Commands, stock []entity.StockItem, logger *zap.Logger) *Server {
	serv := &Server{
		web: &http.Server{
			Addr: addr,
		},
		keeper:   newKeeper(),
		state:    newState(source.Snapshot(), stock),
		commands: commands,
		logger:   logger,
	}
	serv.web.Handler = serv.router()
	return serv
}

func (s *Server) Run(ctx context.Context) error {
	closed := make(chan error, 1)

	go func() {
		s.logger.Info("web listening", zap.String("addr", s.web.Addr))
		closed <- s.web.ListenAndServe()
	}()

	select {
	case err := <-closed:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web: %w", err)
	case <-ctx.Done():
		_ = s.web.Shutdown(context.WithoutCancel(ctx))
		return ctx.Err()
	}
}

func (s *Server) UpdateSnapshot(ctx context.Context, updated event.SnapshotUpdated) error {
	s.state.update(updated.Snapshot)
	return s.push(updated.Snapshot)
}

func (s *Server) UpdateCommand(ctx context.Context, completed event.CommandCompleted) error {
	return s.push(completed)
}

func (s *Server) push(payload any) error {
	if s.keeper.count() == 0 {
		return nil
	}

	js, err := json.Marshal(NewMessage(payload))
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	s.keeper.broadcast(js)

	return nil
}

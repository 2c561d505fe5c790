package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"github.com/zamyatin-zkex/baseflow/internal/metrics"
	"github.com/zamyatin-zkex/baseflow/pkg/ebus"
	"github.com/zamyatin-zkex/baseflow/pkg/utils"
	"go.uber.org/zap"
)

// DefaultDueIn is used when an invoice is created without a due date.
const DefaultDueIn = 30 * 24 * time.Hour

var ErrMissingField = errors.New("missing required field")

// Ledger is the write path of the external ledger. Calls block until the
// ledger accepted or rejected the command.
type Ledger interface {
	CreateInvoice(ctx context.Context, cmd entity.CreateInvoice) error
	UpdateInventory(ctx context.Context, cmd entity.UpdateInventory) error
}

type Emitter interface {
	Emit(ctx context.Context, event any) error
}

// Gateway serializes user mutations into one observable state slot. It
// does not queue: overlapping calls run side by side and share the slot.
type Gateway struct {
	mx    sync.RWMutex
	state entity.CommandState

	ledger Ledger
	eBus   Emitter
	clock  utils.Clock
	logger *zap.Logger
}

func New(ledger Ledger, eBus Emitter, clock utils.Clock, logger *zap.Logger) *Gateway {
	return &Gateway{
		ledger: ledger,
		eBus:   eBus,
		clock:  clock,
		logger: logger,
	}
}

// State returns a copy of the current command state.
func (g *Gateway) State() entity.CommandState {
	g.mx.RLock()
	defer g.mx.RUnlock()

	return g.state
}

// CreateInvoice submits an invoice for customer. amount is a human decimal
// string. A non-positive dueDate means 30 days from now, an empty metadata
// becomes "Invoice for <customer>".
func (g *Gateway) CreateInvoice(ctx context.Context, customer, amount string, dueDate int64, metadata string) error {
	return g.submit(ctx, entity.CommandCreateInvoice, func(ctx context.Context) error {
		customer = strings.TrimSpace(customer)
		if customer == "" {
			return fmt.Errorf("%w: customer", ErrMissingField)
		}
		if strings.TrimSpace(amount) == "" {
			return fmt.Errorf("%w: amount", ErrMissingField)
		}

		units, err := entity.ParseUnits(amount)
		if err != nil {
			return fmt.Errorf("parse amount: %w", err)
		}

		if dueDate <= 0 {
			dueDate = g.clock.Now().Add(DefaultDueIn).Unix()
		}
		if metadata == "" {
			metadata = "Invoice for " + customer
		}

		err = g.ledger.CreateInvoice(ctx, entity.CreateInvoice{
			Customer: customer,
			Amount:   units,
			DueDate:  dueDate,
			Metadata: metadata,
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return nil
	})
}

// UpdateInventory submits a new quantity and price for itemID. price is a
// human decimal string.
func (g *Gateway) UpdateInventory(ctx context.Context, itemID string, quantity int64, price string) error {
	return g.submit(ctx, entity.CommandUpdateInventory, func(ctx context.Context) error {
		itemID = strings.TrimSpace(itemID)
		if itemID == "" {
			return fmt.Errorf("%w: item id", ErrMissingField)
		}

		units, err := entity.ParseUnits(price)
		if err != nil {
			return fmt.Errorf("parse price: %w", err)
		}

		err = g.ledger.UpdateInventory(ctx, entity.UpdateInventory{
			ItemID:   itemID,
			Quantity: quantity,
			Price:    units,
		})
		if err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}
		return nil
	})
}

func (g *Gateway) submit(ctx context.Context, kind entity.CommandKind, fn func(ctx context.Context) error) (err error) {
	g.begin()
	metrics.CommandsInFlight.Inc()
	started := g.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			g.complete(ctx, kind, started, fmt.Errorf("%s panicked: %v", kind, r))
			panic(r)
		}
		g.complete(ctx, kind, started, err)
	}()

	return fn(ctx)
}

// complete clears the in-flight slot and reports the outcome.
func (g *Gateway) complete(ctx context.Context, kind entity.CommandKind, started time.Time, err error) {
	metrics.CommandsInFlight.Dec()
	metrics.CommandDuration.WithLabelValues(string(kind)).Observe(float64(g.clock.Now().Sub(started).Milliseconds()))
	state := g.finish(err)

	if err != nil {
		metrics.CommandsSubmitted.WithLabelValues(string(kind), "failed").Inc()
		g.logger.Warn("command failed", zap.String("command", string(kind)), zap.Error(err))
	} else {
		metrics.CommandsSubmitted.WithLabelValues(string(kind), "ok").Inc()
		g.logger.Info("command accepted", zap.String("command", string(kind)))
	}

	emitErr := g.eBus.Emit(ctx, event.CommandCompleted{Command: kind, State: state})
	if emitErr != nil && !errors.Is(emitErr, ebus.ErrNoListeners) {
		g.logger.Warn("publish command state", zap.Error(emitErr))
	}
}

func (g *Gateway) begin() {
	g.mx.Lock()
	defer g.mx.Unlock()

	g.state = entity.CommandState{InFlight: true}
}

func (g *Gateway) finish(err error) entity.CommandState {
	g.mx.Lock()
	defer g.mx.Unlock()

	g.state.InFlight = false
	if err != nil {
		g.state.LastError = err.Error()
	}
	return g.state
}

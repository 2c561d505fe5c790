package aggregator

import (
	"context"
	"errors"
	"sync"

	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"github.com/zamyatin-zkex/baseflow/internal/metrics"
	"github.com/zamyatin-zkex/baseflow/internal/service/projector"
	"github.com/zamyatin-zkex/baseflow/pkg/ebus"
	"github.com/zamyatin-zkex/baseflow/pkg/ringbuf"
	"github.com/zamyatin-zkex/baseflow/pkg/utils"
	"go.uber.org/zap"
)

const DefaultCapacity = 10

// Bus is the part of the event bus the aggregator needs.
type Bus interface {
	Listen(event any, handler ebus.Listener) (cancel func())
	Emit(ctx context.Context, event any) error
}

// Aggregator folds ledger batches for a single observer into two bounded
// buffers and projects them into snapshots.
type Aggregator struct {
	// pubMx orders project-and-publish, so listeners see snapshots in the
	// order they were projected. Taken before mx.
	pubMx sync.Mutex
	mx    sync.RWMutex

	observer  string
	invoices  *ringbuf.Ring[entity.RawEvent]
	inventory *ringbuf.Ring[entity.InventoryUpdated]

	subsMx sync.Mutex
	subs   map[entity.Kind]func()

	clock  utils.Clock
	eBus   Bus
	logger *zap.Logger
}

func NewAggregator(observer string, capacity int, eBus Bus, clock utils.Clock, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		observer:  observer,
		invoices:  ringbuf.New[entity.RawEvent](capacity),
		inventory: ringbuf.New[entity.InventoryUpdated](capacity),
		subs:      make(map[entity.Kind]func()),
		clock:     clock,
		eBus:      eBus,
		logger:    logger.With(zap.String("observer", observer)),
	}
}

// Subscribe starts consuming the given channels. Channels already
// subscribed are left as they are.
func (a *Aggregator) Subscribe(kinds ...entity.Kind) *Aggregator {
	a.subsMx.Lock()
	defer a.subsMx.Unlock()

	for _, kind := range kinds {
		if _, ok := a.subs[kind]; ok {
			continue
		}

		var cancel func()
		switch kind {
		case entity.KindInvoiceCreated:
			cancel = a.eBus.Listen(event.InvoicesCreated{}, ebus.Typed(a.HandleInvoicesCreated))
		case entity.KindInvoicePaid:
			cancel = a.eBus.Listen(event.InvoicesPaid{}, ebus.Typed(a.HandleInvoicesPaid))
		case entity.KindInventoryUpdated:
			cancel = a.eBus.Listen(event.InventoryUpdated{}, ebus.Typed(a.HandleInventoryUpdated))
		default:
			a.logger.Warn("unknown channel", zap.String("channel", string(kind)))
			continue
		}

		a.subs[kind] = cancel
		a.logger.Debug("subscribed", zap.String("channel", string(kind)))
	}

	return a
}

// Unsubscribe stops consuming the given channels. Buffered events stay.
func (a *Aggregator) Unsubscribe(kinds ...entity.Kind) {
	a.subsMx.Lock()
	defer a.subsMx.Unlock()

	for _, kind := range kinds {
		cancel, ok := a.subs[kind]
		if !ok {
			continue
		}
		cancel()
		delete(a.subs, kind)
		a.logger.Debug("unsubscribed", zap.String("channel", string(kind)))
	}
}

func (a *Aggregator) Subscribed() []entity.Kind {
	a.subsMx.Lock()
	defer a.subsMx.Unlock()

	kinds := make([]entity.Kind, 0, len(a.subs))
	for _, kind := range entity.Kinds() {
		if _, ok := a.subs[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

func (a *Aggregator) HandleInvoicesCreated(ctx context.Context, batch event.InvoicesCreated) error {
	events := make([]entity.RawEvent, 0, len(batch.Events))
	for _, ev := range batch.Events {
		events = append(events, ev)
	}
	a.AppendInvoices(ctx, events...)
	return nil
}

func (a *Aggregator) HandleInvoicesPaid(ctx context.Context, batch event.InvoicesPaid) error {
	events := make([]entity.RawEvent, 0, len(batch.Events))
	for _, ev := range batch.Events {
		events = append(events, ev)
	}
	a.AppendInvoices(ctx, events...)
	return nil
}

func (a *Aggregator) HandleInventoryUpdated(ctx context.Context, batch event.InventoryUpdated) error {
	a.AppendInventory(ctx, batch.Events...)
	return nil
}

// AppendInvoices folds an invoice batch into the invoice buffer and
// publishes the recomputed snapshot. Redelivered events are not deduplicated.
func (a *Aggregator) AppendInvoices(ctx context.Context, batch ...entity.RawEvent) {
	if len(batch) == 0 {
		return
	}

	a.pubMx.Lock()
	defer a.pubMx.Unlock()

	a.mx.Lock()
	evicted := overflow(a.invoices.Len(), len(batch), a.invoices.Cap())
	a.invoices.Append(batch...)
	snap := a.project()
	a.mx.Unlock()

	for _, ev := range batch {
		metrics.EventsIngested.WithLabelValues(string(ev.Kind())).Inc()
	}
	metrics.EventsEvicted.WithLabelValues("invoices").Add(float64(evicted))

	a.publish(ctx, snap)
}

func (a *Aggregator) AppendInventory(ctx context.Context, batch ...entity.InventoryUpdated) {
	if len(batch) == 0 {
		return
	}

	a.pubMx.Lock()
	defer a.pubMx.Unlock()

	a.mx.Lock()
	evicted := overflow(a.inventory.Len(), len(batch), a.inventory.Cap())
	a.inventory.Append(batch...)
	snap := a.project()
	a.mx.Unlock()

	metrics.EventsIngested.WithLabelValues(string(entity.KindInventoryUpdated)).Add(float64(len(batch)))
	metrics.EventsEvicted.WithLabelValues("inventory").Add(float64(evicted))

	a.publish(ctx, snap)
}

// Snapshot projects the current buffers at the current time.
func (a *Aggregator) Snapshot() entity.MetricsSnapshot {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.project()
}

// Refresh republishes the current snapshot so relative times age.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.pubMx.Lock()
	defer a.pubMx.Unlock()

	a.publish(ctx, a.Snapshot())
	return nil
}

// Invoices returns the invoice buffer newest-first.
func (a *Aggregator) Invoices() []entity.RawEvent {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.invoices.Slice()
}

func (a *Aggregator) Inventory() []entity.InventoryUpdated {
	a.mx.RLock()
	defer a.mx.RUnlock()

	return a.inventory.Slice()
}

// project must be called with mx held.
func (a *Aggregator) project() entity.MetricsSnapshot {
	return projector.Project(a.invoices.Slice(), a.inventory.Slice(), a.observer, a.clock.Now())
}

func (a *Aggregator) publish(ctx context.Context, snap entity.MetricsSnapshot) {
	err := a.eBus.Emit(ctx, event.SnapshotUpdated{Snapshot: snap})
	if err != nil && !errors.Is(err, ebus.ErrNoListeners) {
		a.logger.Warn("publish snapshot", zap.Error(err))
	}
}

func overflow(length, batch, capacity int) int {
	return max(0, length+batch-capacity)
}

package aggregator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"github.com/zamyatin-zkex/baseflow/pkg/ebus"
	"github.com/zamyatin-zkex/baseflow/pkg/utils"
	"go.uber.org/zap"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newAggregator(t *testing.T, observer string) (*Aggregator, *ebus.EBus, *utils.FixedClock) {
	t.Helper()

	bus := ebus.New()
	clock := &utils.FixedClock{T: start}
	return NewAggregator(observer, DefaultCapacity, bus, clock, zap.NewNop()), bus, clock
}

func created(id string) entity.InvoiceCreated {
	return entity.InvoiceCreated{
		Observation: entity.Observation{ObservedAt: start},
		InvoiceID:   id,
		Merchant:    "alice",
		Customer:    "bob",
	}
}

func TestAggregator_BufferBound(t *testing.T) {
	agg, _, _ := newAggregator(t, "alice")
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		agg.AppendInvoices(ctx, created(fmt.Sprintf("E%d", i)))
		assert.LessOrEqual(t, len(agg.Invoices()), DefaultCapacity)
	}

	ids := make([]string, 0)
	for _, ev := range agg.Invoices() {
		ids = append(ids, ev.(entity.InvoiceCreated).InvoiceID)
	}
	assert.Equal(t, []string{"E12", "E11", "E10", "E9", "E8", "E7", "E6", "E5", "E4", "E3"}, ids)
}

func TestAggregator_BuffersAreIndependent(t *testing.T) {
	agg, _, _ := newAggregator(t, "alice")
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		agg.AppendInventory(ctx, entity.InventoryUpdated{ItemID: fmt.Sprintf("sku-%d", i)})
	}
	agg.AppendInvoices(ctx, created("1"))

	assert.Len(t, agg.Inventory(), DefaultCapacity)
	assert.Equal(t, "sku-14", agg.Inventory()[0].ItemID)
	assert.Len(t, agg.Invoices(), 1)
}

func TestAggregator_NoDeduplication(t *testing.T) {
	agg, _, _ := newAggregator(t, "alice")
	ctx := context.Background()

	agg.AppendInvoices(ctx, created("1"))
	agg.AppendInvoices(ctx, created("1"))

	assert.Len(t, agg.Invoices(), 2)
	assert.Equal(t, 2, agg.Snapshot().Orders)
}

func TestAggregator_Subscribe(t *testing.T) {
	agg, bus, clock := newAggregator(t, "alice")
	ctx := context.Background()

	var published []entity.MetricsSnapshot
	bus.Subscribe(event.SnapshotUpdated{}, ebus.Typed(func(ctx context.Context, e event.SnapshotUpdated) error {
		published = append(published, e.Snapshot)
		return nil
	}))

	agg.Subscribe(entity.Kinds()...)
	assert.Equal(t, entity.Kinds(), agg.Subscribed())

	require.NoError(t, bus.Emit(ctx, event.InvoicesCreated{Events: []entity.InvoiceCreated{created("1")}}))
	clock.Advance(time.Minute)
	require.NoError(t, bus.Emit(ctx, event.InvoicesPaid{Events: []entity.InvoicePaid{{
		Observation: entity.Observation{ObservedAt: clock.Now()},
		InvoiceID:   "9",
		Customer:    "ALICE",
		Amount:      decimal.NewFromInt(50_000_000),
	}}}))
	require.NoError(t, bus.Emit(ctx, event.InventoryUpdated{Events: []entity.InventoryUpdated{{ItemID: "sku-1", Quantity: 23}}}))

	require.Len(t, published, 3)
	last := published[2]
	assert.Equal(t, 1, last.Orders)
	assert.Equal(t, 1, last.Customers)
	assert.True(t, decimal.NewFromInt(50).Equal(last.Revenue))
	assert.Len(t, last.RecentActivity, 3)
	assert.Equal(t, agg.Snapshot(), last)
}

func TestAggregator_Unsubscribe(t *testing.T) {
	agg, bus, _ := newAggregator(t, "alice")
	ctx := context.Background()

	agg.Subscribe(entity.KindInvoiceCreated, entity.KindInventoryUpdated)
	agg.Unsubscribe(entity.KindInvoiceCreated)
	assert.Equal(t, []entity.Kind{entity.KindInventoryUpdated}, agg.Subscribed())

	err := bus.Emit(ctx, event.InvoicesCreated{Events: []entity.InvoiceCreated{created("1")}})
	assert.ErrorIs(t, err, ebus.ErrNoListeners)
	assert.Empty(t, agg.Invoices())

	require.NoError(t, bus.Emit(ctx, event.InventoryUpdated{Events: []entity.InventoryUpdated{{ItemID: "a"}}}))
	assert.Len(t, agg.Inventory(), 1)

	// resubscribing picks up new deliveries again
	agg.Subscribe(entity.KindInvoiceCreated)
	require.NoError(t, bus.Emit(ctx, event.InvoicesCreated{Events: []entity.InvoiceCreated{created("2")}}))
	assert.Len(t, agg.Invoices(), 1)
}

func TestAggregator_SubscribeTwice(t *testing.T) {
	agg, bus, _ := newAggregator(t, "alice")
	ctx := context.Background()

	agg.Subscribe(entity.KindInvoiceCreated).Subscribe(entity.KindInvoiceCreated)
	require.NoError(t, bus.Emit(ctx, event.InvoicesCreated{Events: []entity.InvoiceCreated{created("1")}}))

	assert.Len(t, agg.Invoices(), 1)
}

func TestAggregator_EmptyBatch(t *testing.T) {
	agg, bus, _ := newAggregator(t, "alice")

	published := 0
	bus.Subscribe(event.SnapshotUpdated{}, func(ctx context.Context, e interface{}) error {
		published++
		return nil
	})

	agg.AppendInvoices(context.Background())
	agg.AppendInventory(context.Background())

	assert.Zero(t, published)
	assert.Empty(t, agg.Invoices())
}

func TestAggregator_SnapshotAgesWithClock(t *testing.T) {
	agg, _, clock := newAggregator(t, "alice")

	agg.AppendInvoices(context.Background(), created("1"))
	assert.Equal(t, "0m ago", agg.Snapshot().RecentActivity[0].Time)

	clock.Advance(2 * time.Hour)
	assert.Equal(t, "2h ago", agg.Snapshot().RecentActivity[0].Time)
}

// gatedBus holds the first snapshot emit until release is closed.
type gatedBus struct {
	mx      sync.Mutex
	emits   int
	entered chan struct{}
	release chan struct{}
	last    entity.MetricsSnapshot
}

func (b *gatedBus) Listen(ev any, handler ebus.Listener) func() { return func() {} }

func (b *gatedBus) Emit(ctx context.Context, e any) error {
	updated, ok := e.(event.SnapshotUpdated)
	if !ok {
		return nil
	}

	b.mx.Lock()
	n := b.emits
	b.emits++
	b.mx.Unlock()

	if n == 0 {
		close(b.entered)
		<-b.release
	}

	b.mx.Lock()
	b.last = updated.Snapshot
	b.mx.Unlock()
	return nil
}

func TestAggregator_PublishesInProjectionOrder(t *testing.T) {
	bus := &gatedBus{entered: make(chan struct{}), release: make(chan struct{})}
	agg := NewAggregator("alice", DefaultCapacity, bus, &utils.FixedClock{T: start}, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		agg.AppendInvoices(ctx, created("1"))
	}()
	<-bus.entered

	go func() {
		defer wg.Done()
		agg.AppendInventory(ctx, entity.InventoryUpdated{
			Observation: entity.Observation{ObservedAt: start},
			ItemID:      "sku-1",
			Quantity:    3,
		})
	}()

	// let the inventory append reach the aggregator while the first emit is held
	time.Sleep(20 * time.Millisecond)
	close(bus.release)
	wg.Wait()

	assert.Equal(t, 2, bus.emits)
	assert.Len(t, bus.last.RecentActivity, 2)
	assert.Equal(t, agg.Snapshot().RecentActivity, bus.last.RecentActivity)
}

func TestAggregator_Refresh(t *testing.T) {
	agg, bus, clock := newAggregator(t, "alice")

	agg.AppendInvoices(context.Background(), created("1"))
	clock.Advance(3 * time.Minute)

	var got entity.MetricsSnapshot
	bus.Subscribe(event.SnapshotUpdated{}, ebus.Typed(func(ctx context.Context, e event.SnapshotUpdated) error {
		got = e.Snapshot
		return nil
	}))

	require.NoError(t, agg.Refresh(context.Background()))
	require.Len(t, got.RecentActivity, 1)
	assert.Equal(t, "3m ago", got.RecentActivity[0].Time)
}

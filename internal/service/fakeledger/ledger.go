package fakeledger

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

type EventStore interface {
	Publish(ctx context.Context, kind entity.Kind, key string, batch any) error
}

// Ledger plays the merchant's ledger: every tick it creates an invoice for
// a random customer, pays an open one now and then and touches inventory.
type Ledger struct {
	merchant  string
	customers []string
	every     time.Duration
	repo      EventStore
	rnd       *rand.Rand

	open   []entity.InvoiceCreated
	nextID int64
}

func New(repo EventStore, every time.Duration, merchant string, customers ...string) *Ledger {
	if len(customers) == 0 {
		customers = []string{merchant}
	}
	return &Ledger{
		merchant:  merchant,
		customers: customers,
		every:     every,
		repo:      repo,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (l *Ledger) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				return fmt.Errorf("fake ledger: %w", err)
			}
		}
	}
}

// Tick publishes one round of events.
func (l *Ledger) Tick(ctx context.Context) error {
	created := l.invoice()
	if err := l.repo.Publish(ctx, entity.KindInvoiceCreated, created.InvoiceID, []entity.InvoiceCreated{created}); err != nil {
		return err
	}
	l.open = append(l.open, created)

	if len(l.open) > 1 && l.rnd.Intn(2) == 0 {
		inv := l.open[0]
		l.open = l.open[1:]
		paid := entity.InvoicePaid{InvoiceID: inv.InvoiceID, Customer: inv.Customer, Amount: inv.Amount}
		if err := l.repo.Publish(ctx, entity.KindInvoicePaid, paid.InvoiceID, []entity.InvoicePaid{paid}); err != nil {
			return err
		}
	}

	if l.rnd.Intn(3) == 0 {
		upd := entity.InventoryUpdated{
			Merchant: l.merchant,
			ItemID:   strconv.Itoa(l.rnd.Intn(5) + 1),
			Quantity: int64(l.rnd.Intn(100)),
			Price:    units(l.rnd.Intn(50) + 1),
		}
		if err := l.repo.Publish(ctx, entity.KindInventoryUpdated, uuid.NewString(), []entity.InventoryUpdated{upd}); err != nil {
			return err
		}
	}

	return nil
}

func (l *Ledger) invoice() entity.InvoiceCreated {
	l.nextID++
	return entity.InvoiceCreated{
		InvoiceID: strconv.FormatInt(l.nextID, 10),
		Merchant:  l.merchant,
		Customer:  l.customers[l.rnd.Intn(len(l.customers))],
		Amount:    units(l.rnd.Intn(200) + 1),
	}
}

func units(whole int) decimal.Decimal {
	return decimal.NewFromInt(int64(whole)).Shift(entity.Decimals)
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates ledger events. Values double as channel names.
type Kind string

const (
	KindInvoiceCreated   Kind = "InvoiceCreated"
	KindInvoicePaid      Kind = "InvoicePaid"
	KindInventoryUpdated Kind = "InventoryUpdated"
)

func Kinds() []Kind {
	return []Kind{KindInvoiceCreated, KindInvoicePaid, KindInventoryUpdated}
}

// RawEvent is one of InvoiceCreated, InvoicePaid or InventoryUpdated.
// The set is closed: only this package can add members.
type RawEvent interface {
	Kind() Kind
	Observed() time.Time
	rawEvent()
}

// Observation carries the wall-clock time the event was delivered to us.
// The ledger has no usable block time, so this is what "time ago" is
// rendered from.
type Observation struct {
	ObservedAt time.Time `json:"-"`
}

func (o Observation) Observed() time.Time { return o.ObservedAt }

// Amounts and prices are kept in ledger units (see Decimals).
type InvoiceCreated struct {
	Observation
	InvoiceID string          `json:"invoiceId"`
	Merchant  string          `json:"merchant"`
	Customer  string          `json:"customer"`
	Amount    decimal.Decimal `json:"amount"`
}

type InvoicePaid struct {
	Observation
	InvoiceID string          `json:"invoiceId"`
	Customer  string          `json:"customer"`
	Amount    decimal.Decimal `json:"amount"`
}

type InventoryUpdated struct {
	Observation
	Merchant string          `json:"merchant"`
	ItemID   string          `json:"itemId"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (InvoiceCreated) Kind() Kind   { return KindInvoiceCreated }
func (InvoicePaid) Kind() Kind      { return KindInvoicePaid }
func (InventoryUpdated) Kind() Kind { return KindInventoryUpdated }

func (InvoiceCreated) rawEvent()   {}
func (InvoicePaid) rawEvent()      {}
func (InventoryUpdated) rawEvent() {}

package event

import "github.com/zamyatin-zkex/baseflow/internal/entity"

// One type per ledger channel, so bus subscribers can pick channels
// independently. Each carries one delivered batch in arrival order.

type InvoicesCreated struct {
	Events []entity.InvoiceCreated
}

type InvoicesPaid struct {
	Events []entity.InvoicePaid
}

type InventoryUpdated struct {
	Events []entity.InventoryUpdated
}

// BatchSkipped is emitted when a delivered message could not be decoded.
type BatchSkipped struct {
	Channel entity.Kind
	Offset  int64
	Reason  string
}

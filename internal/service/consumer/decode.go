package consumer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
)

// number accepts JSON numbers, decimal or 0x-hex strings and null.
// Anything it cannot read is zero.
type number struct {
	decimal.Decimal
}

func (n *number) UnmarshalJSON(data []byte) error {
	n.Decimal = decimal.Zero

	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}

	if hex, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		if v, ok := new(big.Int).SetString(hex, 16); ok {
			n.Decimal = decimal.NewFromBigInt(v, 0)
		}
		return nil
	}

	if d, err := decimal.NewFromString(raw); err == nil {
		n.Decimal = d
	}
	return nil
}

func (n number) integer() int64 {
	return n.Decimal.IntPart()
}

// id accepts strings and numbers, invoice ids are uint256 on the ledger.
type id string

func (i *id) UnmarshalJSON(data []byte) error {
	*i = ""
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = id(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*i = id(n.String())
	}
	return nil
}

type record struct {
	InvoiceID id     `json:"invoiceId"`
	Merchant  string `json:"merchant"`
	Customer  string `json:"customer"`
	Amount    number `json:"amount"`
	ItemID    id     `json:"itemId"`
	Quantity  number `json:"quantity"`
	Price     number `json:"price"`
}

// records reads a batch: a JSON array of records or a single record.
func records(value []byte) ([]record, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	if value[0] == '[' {
		batch := make([]record, 0)
		if err := json.Unmarshal(value, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal batch: %w", err)
		}
		return batch, nil
	}

	var single record
	if err := json.Unmarshal(value, &single); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return []record{single}, nil
}

// decode turns a delivered message into the bus event of its channel,
// stamping every record with observedAt.
func decode(kind entity.Kind, value []byte, observedAt time.Time) (any, error) {
	batch, err := records(value)
	if err != nil {
		return nil, err
	}

	seen := entity.Observation{ObservedAt: observedAt}

	switch kind {
	case entity.KindInvoiceCreated:
		out := event.InvoicesCreated{Events: make([]entity.InvoiceCreated, 0, len(batch))}
		for _, r := range batch {
			out.Events = append(out.Events, entity.InvoiceCreated{
				Observation: seen,
				InvoiceID:   string(r.InvoiceID),
				Merchant:    r.Merchant,
				Customer:    r.Customer,
				Amount:      r.Amount.Decimal,
			})
		}
		return out, nil
	case entity.KindInvoicePaid:
		out := event.InvoicesPaid{Events: make([]entity.InvoicePaid, 0, len(batch))}
		for _, r := range batch {
			out.Events = append(out.Events, entity.InvoicePaid{
				Observation: seen,
				InvoiceID:   string(r.InvoiceID),
				Customer:    r.Customer,
				Amount:      r.Amount.Decimal,
			})
		}
		return out, nil
	case entity.KindInventoryUpdated:
		out := event.InventoryUpdated{Events: make([]entity.InventoryUpdated, 0, len(batch))}
		for _, r := range batch {
			out.Events = append(out.Events, entity.InventoryUpdated{
				Observation: seen,
				Merchant:    r.Merchant,
				ItemID:      string(r.ItemID),
				Quantity:    r.Quantity.integer(),
				Price:       r.Price.Decimal,
			})
		}
		return out, nil
	}

	return nil, fmt.Errorf("unknown channel %q", kind)
}

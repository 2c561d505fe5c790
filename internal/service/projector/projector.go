// Package projector derives MetricsSnapshot values from buffered ledger
// events. Everything here is pure: equal inputs give equal snapshots.
package projector

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

// RecentLimit is how many rows the activity feed keeps.
const RecentLimit = 5

// Project computes the snapshot for observer from newest-first buffers.
//
// Orders and Customers describe the observer acting as a merchant, Revenue
// describes what the observer paid as a customer. The two are filtered on
// different fields on purpose and must not be unified.
func Project(invoices []entity.RawEvent, inventory []entity.InventoryUpdated, observer string, now time.Time) entity.MetricsSnapshot {
	var (
		orders    int
		revenue   = decimal.Zero
		customers = make(map[string]struct{})
	)

	for _, ev := range invoices {
		switch e := ev.(type) {
		case entity.InvoiceCreated:
			if !sameIdentity(e.Merchant, observer) {
				continue
			}
			orders++
			if e.Customer != "" {
				customers[strings.ToLower(e.Customer)] = struct{}{}
			}
		case entity.InvoicePaid:
			if sameIdentity(e.Customer, observer) {
				revenue = revenue.Add(entity.FormatUnits(e.Amount))
			}
		}
	}

	return entity.MetricsSnapshot{
		Observer:       observer,
		Revenue:        revenue,
		RevenueDisplay: fmt.Sprintf("$%s USDC", revenue.StringFixed(2)),
		Orders:         orders,
		Customers:      len(customers),
		RecentActivity: recent(invoices, inventory, now),
		ProjectedAt:    now,
	}
}

// sameIdentity compares wallet identities ignoring case. An empty identity
// matches nothing.
func sameIdentity(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

func recent(invoices []entity.RawEvent, inventory []entity.InventoryUpdated, now time.Time) []entity.DisplayTransaction {
	all := make([]entity.RawEvent, 0, len(invoices)+len(inventory))
	all = append(all, invoices...)
	for _, ev := range inventory {
		all = append(all, ev)
	}

	slices.SortStableFunc(all, func(a, b entity.RawEvent) int {
		return cmp.Compare(b.Observed().UnixMilli(), a.Observed().UnixMilli())
	})

	if len(all) > RecentLimit {
		all = all[:RecentLimit]
	}

	out := make([]entity.DisplayTransaction, 0, len(all))
	for _, ev := range all {
		out = append(out, Display(ev, now))
	}
	return out
}

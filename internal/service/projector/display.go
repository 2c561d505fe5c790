package projector

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

const shortIDLen = 10

// Display formats a single event as an activity row.
func Display(ev entity.RawEvent, now time.Time) entity.DisplayTransaction {
	ago := TimeAgo(ev.Observed(), now)

	switch e := ev.(type) {
	case entity.InvoiceCreated:
		return entity.DisplayTransaction{
			ID:     e.InvoiceID,
			Type:   entity.ActivityPending,
			Amount: money(e.Amount),
			From:   shorten(e.Customer),
			Time:   ago,
		}
	case entity.InvoicePaid:
		return entity.DisplayTransaction{
			ID:     e.InvoiceID,
			Type:   entity.ActivityReceived,
			Amount: money(e.Amount),
			From:   shorten(e.Customer),
			Time:   ago,
		}
	case entity.InventoryUpdated:
		return entity.DisplayTransaction{
			ID:     e.ItemID,
			Type:   entity.ActivityInventory,
			Amount: fmt.Sprintf("%d items", e.Quantity),
			From:   "Item: " + e.ItemID,
			Time:   ago,
		}
	}

	return entity.DisplayTransaction{Time: ago}
}

// TimeAgo renders the age of observedAt at now in whole minutes, hours or
// days, using millisecond arithmetic.
func TimeAgo(observedAt, now time.Time) string {
	diff := now.UnixMilli() - observedAt.UnixMilli()
	if diff < 0 {
		diff = 0
	}

	minutes := diff / 60_000
	hours := diff / 3_600_000
	days := diff / 86_400_000

	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return fmt.Sprintf("%dd ago", days)
	}
}

func money(units decimal.Decimal) string {
	return "$" + entity.FormatUnits(units).StringFixed(2)
}

func shorten(id string) string {
	if id == "" {
		return ""
	}
	if runes := []rune(id); len(runes) > shortIDLen {
		id = string(runes[:shortIDLen])
	}
	return id + "..."
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type ActivityType string

const (
	ActivityPending   ActivityType = "pending"
	ActivityReceived  ActivityType = "received"
	ActivityInventory ActivityType = "inventory"
)

// DisplayTransaction is a recent-activity row ready for rendering.
type DisplayTransaction struct {
	ID     string       `json:"id"`
	Type   ActivityType `json:"type"`
	Amount string       `json:"amount"`
	From   string       `json:"from"`
	Time   string       `json:"time"`
}

// MetricsSnapshot is derived from the event buffers and never mutated.
type MetricsSnapshot struct {
	Observer       string               `json:"observer"`
	Revenue        decimal.Decimal      `json:"revenue"`
	RevenueDisplay string               `json:"revenueDisplay"`
	Orders         int                  `json:"orders"`
	Customers      int                  `json:"customers"`
	RecentActivity []DisplayTransaction `json:"recentActivity"`
	ProjectedAt    time.Time            `json:"projectedAt"`
}

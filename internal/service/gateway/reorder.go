package gateway

import (
	"context"
	"fmt"

	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

// Reorder restocks item up to its current stock plus the reorder quantity.
func (g *Gateway) Reorder(ctx context.Context, item entity.StockItem) error {
	return g.UpdateInventory(ctx, item.ID, item.Stock+item.ReorderQuantity, item.Price)
}

// ReorderAll restocks every low item one after another and stops at the
// first failure. It returns the ids that were reordered.
func (g *Gateway) ReorderAll(ctx context.Context, items []entity.StockItem) ([]string, error) {
	done := make([]string, 0, len(items))
	for _, item := range items {
		if !item.Low() {
			continue
		}
		if err := g.Reorder(ctx, item); err != nil {
			return done, fmt.Errorf("reorder %s: %w", item.ID, err)
		}
		done = append(done, item.ID)
	}
	return done, nil
}

package web

import (
	"slices"
	"sync"

	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

type state struct {
	snapshot entity.MetricsSnapshot
	stock    []entity.StockItem
	mx       sync.RWMutex
}

func newState(snapshot entity.MetricsSnapshot, stock []entity.StockItem) *state {
	return &state{
		snapshot: snapshot,
		stock:    slices.Clone(stock),
	}
}

func (s *state) update(snapshot entity.MetricsSnapshot) {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.snapshot = snapshot
}

func (s *state) get() entity.MetricsSnapshot {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.snapshot
}

func (s *state) items() []entity.StockItem {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return slices.Clone(s.stock)
}

func (s *state) item(id string) (entity.StockItem, bool) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	i := slices.IndexFunc(s.stock, func(it entity.StockItem) bool { return it.ID == id })
	if i < 0 {
		return entity.StockItem{}, false
	}
	return s.stock[i], true
}

// restocked records that the items were reordered.
func (s *state) restocked(ids ...string) {
	s.mx.Lock()
	defer s.mx.Unlock()

	for i := range s.stock {
		if slices.Contains(ids, s.stock[i].ID) {
			s.stock[i].Stock += s.stock[i].ReorderQuantity
		}
	}
}

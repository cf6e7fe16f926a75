package handler

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/food-order-webhook/internal/model"
	"github.com/iliyamo/food-order-webhook/internal/repository"
)

// memStore is an in-memory catalog, cart and tracking store with the same
// error contract as the MySQL repositories.
type memStore struct {
	mu       sync.Mutex
	menu     []model.FoodItem
	carts    map[int64][]model.OrderLine
	tracking map[int64]string
	down     error           // when set, every call fails with it
	broken   map[string]bool // item names whose lookup fails with errBroken
}

var errBroken = errors.New("lookup: read tcp 10.0.0.5:3306: i/o timeout")

func newMemStore() *memStore {
	return &memStore{
		menu: []model.FoodItem{
			{ID: 1, Name: "foul", Price: decimal.RequireFromString("6.00")},
			{ID: 2, Name: "falafel", Price: decimal.RequireFromString("4.00")},
			{ID: 3, Name: "koshari", Price: decimal.RequireFromString("9.50")},
		},
		carts:    map[int64][]model.OrderLine{},
		tracking: map[int64]string{},
	}
}

func (m *memStore) item(id int64) model.FoodItem {
	for _, it := range m.menu {
		if it.ID == id {
			return it
		}
	}
	return model.FoodItem{}
}

func (m *memStore) LookupItemID(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return 0, m.down
	}
	if m.broken[name] {
		return 0, errBroken
	}
	for _, it := range m.menu {
		if it.Name == name {
			return it.ID, nil
		}
	}
	return 0, repository.ErrItemNotFound
}

func (m *memStore) Menu(context.Context) ([]model.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return nil, m.down
	}
	return append([]model.FoodItem(nil), m.menu...), nil
}

func (m *memStore) AddItem(_ context.Context, itemID int64, quantity int, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return m.down
	}
	it := m.item(itemID)
	lines := m.carts[orderID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity += quantity
			lines[i].TotalPrice = it.Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
			return nil
		}
	}
	m.carts[orderID] = append(lines, model.OrderLine{
		OrderID:    orderID,
		ItemID:     itemID,
		ItemName:   it.Name,
		Quantity:   quantity,
		TotalPrice: it.Price.Mul(decimal.NewFromInt(int64(quantity))),
	})
	return nil
}

func (m *memStore) RemoveItem(_ context.Context, itemID int64, quantity int, orderID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return 0, m.down
	}
	lines := m.carts[orderID]
	for i := range lines {
		if lines[i].ItemID != itemID {
			continue
		}
		removed := min(quantity, lines[i].Quantity)
		lines[i].Quantity -= removed
		if lines[i].Quantity == 0 {
			m.carts[orderID] = append(lines[:i], lines[i+1:]...)
		} else {
			lines[i].TotalPrice = m.item(itemID).Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		}
		return removed, nil
	}
	return 0, repository.ErrLineNotFound
}

func (m *memStore) OrderTotal(_ context.Context, orderID int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return decimal.Zero, m.down
	}
	total := decimal.Zero
	for _, l := range m.carts[orderID] {
		total = total.Add(l.TotalPrice)
	}
	return total, nil
}

func (m *memStore) OrderSummary(_ context.Context, orderID int64) ([]model.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return nil, m.down
	}
	return append([]model.OrderLine(nil), m.carts[orderID]...), nil
}

func (m *memStore) ClearOrder(_ context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return m.down
	}
	delete(m.carts, orderID)
	return nil
}

func (m *memStore) FinalizeTracking(_ context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return m.down
	}
	m.tracking[orderID] = model.StatusPreparing
	return nil
}

func (m *memStore) TrackingStatus(_ context.Context, orderID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down != nil {
		return "", m.down
	}
	st, ok := m.tracking[orderID]
	if !ok {
		return "", repository.ErrTrackingNotFound
	}
	return st, nil
}

package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/food-order-webhook/internal/model"
	"github.com/iliyamo/food-order-webhook/internal/queue"
)

// MockCatalog is a mock ItemCatalog.
type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) LookupItemID(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalog) Menu(ctx context.Context) ([]model.FoodItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodItem), args.Error(1)
}

// MockCart is a mock CartStore.
type MockCart struct{ mock.Mock }

func (m *MockCart) AddItem(ctx context.Context, itemID int64, quantity int, orderID int64) error {
	return m.Called(ctx, itemID, quantity, orderID).Error(0)
}

func (m *MockCart) RemoveItem(ctx context.Context, itemID int64, quantity int, orderID int64) (int, error) {
	args := m.Called(ctx, itemID, quantity, orderID)
	return args.Int(0), args.Error(1)
}

func (m *MockCart) OrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockCart) OrderSummary(ctx context.Context, orderID int64) ([]model.OrderLine, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderLine), args.Error(1)
}

func (m *MockCart) ClearOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

// MockTracking is a mock TrackingStore.
type MockTracking struct{ mock.Mock }

func (m *MockTracking) FinalizeTracking(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *MockTracking) TrackingStatus(ctx context.Context, orderID int64) (string, error) {
	args := m.Called(ctx, orderID)
	return args.String(0), args.Error(1)
}

// MockPublisher is a mock EventPublisher.
type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

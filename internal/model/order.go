package model

import "github.com/shopspring/decimal"

// OrderLine is one (food item, quantity, price) entry of a cart.  The
// `orders` table holds at most one line per (order_id, item_id); adding the
// same item again increases Quantity instead of inserting a second row.
// An order has no header row of its own: it exists while it has lines.
type OrderLine struct {
	OrderID    int64           `json:"order_id"`    // orders.order_id
	ItemID     int64           `json:"item_id"`     // orders.item_id
	ItemName   string          `json:"item_name"`   // food_items.name
	Quantity   int             `json:"quantity"`    // orders.quantity
	TotalPrice decimal.Decimal `json:"total_price"` // orders.total_price
}

// Tracking statuses written to `order_tracking.status`.  Orders start in
// StatusPreparing when they are completed; later transitions are made by
// the kitchen and delivery side.
const (
	StatusPreparing = "preparing"
	StatusInTransit = "in transit"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// ValidStatus reports whether s is one of the known tracking statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPreparing, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// OrderTracking is the fulfilment record created when an order is placed.
type OrderTracking struct {
	OrderID int64  // order_tracking.order_id
	Status  string // order_tracking.status
}

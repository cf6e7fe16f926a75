// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedEvent is published when a cart is completed and its tracking
// row created.  It carries the lines as they were at completion time, since
// the cart itself is cleared right after, so consumers can log, notify the
// kitchen or feed analytics without querying the primary database.
type OrderPlacedEvent struct {
	EventID  string          `json:"event_id"`
	OrderID  int64           `json:"order_id"`
	Status   string          `json:"status"`
	Total    string          `json:"total"`
	Currency string          `json:"currency"`
	Lines    []OrderLineItem `json:"lines"`
	PlacedAt string          `json:"placed_at"`
}

// OrderLineItem is one line of an OrderPlacedEvent.  Prices are decimal
// strings to avoid float rounding on the wire.
type OrderLineItem struct {
	Item       string `json:"item"`
	Quantity   int    `json:"quantity"`
	TotalPrice string `json:"total_price"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/food-order-webhook/internal/model"
	"github.com/iliyamo/food-order-webhook/internal/queue"
	"github.com/iliyamo/food-order-webhook/internal/repository"
)

// ItemCatalog resolves food item names and lists the menu.
type ItemCatalog interface {
	LookupItemID(ctx context.Context, name string) (int64, error)
	Menu(ctx context.Context) ([]model.FoodItem, error)
}

// CartStore mutates and reads the lines of a cart.
type CartStore interface {
	AddItem(ctx context.Context, itemID int64, quantity int, orderID int64) error
	RemoveItem(ctx context.Context, itemID int64, quantity int, orderID int64) (int, error)
	OrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)
	OrderSummary(ctx context.Context, orderID int64) ([]model.OrderLine, error)
	ClearOrder(ctx context.Context, orderID int64) error
}

// TrackingStore records and reads fulfilment status.
type TrackingStore interface {
	FinalizeTracking(ctx context.Context, orderID int64) error
	TrackingStatus(ctx context.Context, orderID int64) (string, error)
}

// EventPublisher delivers order events to the broker.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// AddResult partitions the items of an add request by outcome.
type AddResult struct {
	Added    []ItemRequest // added to the cart
	NotFound []string      // not on the menu, as the caller spelled them
	Failed   []string      // storage error
}

// RemoveResult partitions the items of a remove request by outcome.
// Removed quantities are the units actually taken out, which is less than
// requested when the cart held fewer.
type RemoveResult struct {
	Removed  []ItemRequest
	NotFound []string // not on the menu, or not in the cart
	Failed   []string
}

// Cart is the current content of an order.
type Cart struct {
	Lines []model.OrderLine
	Total decimal.Decimal
}

// Empty reports whether the cart has no lines.
func (c Cart) Empty() bool { return len(c.Lines) == 0 }

// Receipt describes a completed order.  ClearFailed is set when the order
// was recorded but its cart lines could not be deleted afterwards; the
// order still counts as placed.
type Receipt struct {
	OrderID     int64
	Total       decimal.Decimal
	Lines       []model.OrderLine
	ClearFailed bool
}

// OrderService applies the ordering rules on top of the repositories.  It
// keeps no state between calls: every method works against storage for the
// order key it is given.
type OrderService struct {
	catalog  ItemCatalog
	cart     CartStore
	tracking TrackingStore
	events   EventPublisher
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

// NewOrderService wires the service.  events may be nil, in which case no
// events are published.
func NewOrderService(catalog ItemCatalog, cart CartStore, tracking TrackingStore, events EventPublisher, currency string, log zerolog.Logger) *OrderService {
	if catalog == nil || cart == nil || tracking == nil {
		panic("nil store passed to NewOrderService")
	}
	return &OrderService{
		catalog:  catalog,
		cart:     cart,
		tracking: tracking,
		events:   events,
		currency: currency,
		log:      log.With().Str("component", "order_service").Logger(),
		now:      time.Now,
	}
}

// AddItems adds each requested item in turn.  An item that is not on the
// menu or fails to store does not stop the others; earlier successes are
// kept.
func (s *OrderService) AddItems(ctx context.Context, orderID int64, names []string, quantities []int) (AddResult, error) {
	items, err := NormalizeItems(names, quantities)
	if err != nil {
		return AddResult{}, err
	}
	var res AddResult
	for _, it := range items {
		itemID, err := s.catalog.LookupItemID(ctx, it.Name)
		if errors.Is(err, repository.ErrItemNotFound) {
			res.NotFound = append(res.NotFound, it.Display)
			continue
		}
		if err == nil {
			err = s.cart.AddItem(ctx, itemID, it.Quantity, orderID)
		}
		if err != nil {
			s.log.Error().Err(err).Int64("order_id", orderID).Str("item", it.Name).Msg("add item failed")
			res.Failed = append(res.Failed, it.Display)
			continue
		}
		res.Added = append(res.Added, it)
	}
	return res, nil
}

// RemoveItems removes each requested item in turn, reporting items that
// are unknown or absent from the cart separately from storage failures.
func (s *OrderService) RemoveItems(ctx context.Context, orderID int64, names []string, quantities []int) (RemoveResult, error) {
	items, err := NormalizeItems(names, quantities)
	if err != nil {
		return RemoveResult{}, err
	}
	var res RemoveResult
	for _, it := range items {
		itemID, err := s.catalog.LookupItemID(ctx, it.Name)
		removed := 0
		if err == nil {
			removed, err = s.cart.RemoveItem(ctx, itemID, it.Quantity, orderID)
		}
		switch {
		case errors.Is(err, repository.ErrItemNotFound), errors.Is(err, repository.ErrLineNotFound):
			res.NotFound = append(res.NotFound, it.Display)
		case err != nil:
			s.log.Error().Err(err).Int64("order_id", orderID).Str("item", it.Name).Msg("remove item failed")
			res.Failed = append(res.Failed, it.Display)
		default:
			it.Quantity = removed
			res.Removed = append(res.Removed, it)
		}
	}
	return res, nil
}

// ViewCart returns the order's lines and total.
func (s *OrderService) ViewCart(ctx context.Context, orderID int64) (Cart, error) {
	lines, err := s.cart.OrderSummary(ctx, orderID)
	if err != nil {
		return Cart{}, err
	}
	if len(lines) == 0 {
		return Cart{Lines: lines, Total: decimal.Zero}, nil
	}
	total, err := s.cart.OrderTotal(ctx, orderID)
	if err != nil {
		return Cart{}, err
	}
	return Cart{Lines: lines, Total: total}, nil
}

// CompleteOrder places the order: it records tracking as "preparing" and
// then clears the cart.  An order totalling zero is rejected with
// ErrEmptyCart before anything is written.
//
// Finalize and clear are separate statements.  If the clear fails the
// tracking row is already the record of the placed order, so the failure is
// logged and reported through Receipt.ClearFailed rather than as an error.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID int64) (Receipt, error) {
	total, err := s.cart.OrderTotal(ctx, orderID)
	if err != nil {
		return Receipt{}, err
	}
	if total.Sign() <= 0 {
		return Receipt{}, ErrEmptyCart
	}
	lines, err := s.cart.OrderSummary(ctx, orderID)
	if err != nil {
		return Receipt{}, err
	}
	if err := s.tracking.FinalizeTracking(ctx, orderID); err != nil {
		return Receipt{}, err
	}
	rec := Receipt{OrderID: orderID, Total: total, Lines: lines}
	if err := s.cart.ClearOrder(ctx, orderID); err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("order placed but cart not cleared")
		rec.ClearFailed = true
	}
	s.publishPlaced(ctx, rec)
	return rec, nil
}

// NewOrder discards whatever is in the cart.
func (s *OrderService) NewOrder(ctx context.Context, orderID int64) error {
	return s.cart.ClearOrder(ctx, orderID)
}

// TrackOrder returns the tracking status of a placed order.  ErrNotFound
// is returned when the order was never placed.
func (s *OrderService) TrackOrder(ctx context.Context, orderID int64) (string, error) {
	if orderID <= 0 {
		return "", ErrBadOrderID
	}
	status, err := s.tracking.TrackingStatus(ctx, orderID)
	if errors.Is(err, repository.ErrTrackingNotFound) {
		return "", fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return status, err
}

// Menu lists the catalog.
func (s *OrderService) Menu(ctx context.Context) ([]model.FoodItem, error) {
	return s.catalog.Menu(ctx)
}

func (s *OrderService) publishPlaced(ctx context.Context, rec Receipt) {
	if s.events == nil {
		return
	}
	ev := queue.OrderPlacedEvent{
		EventID:  uuid.NewString(),
		OrderID:  rec.OrderID,
		Status:   model.StatusPreparing,
		Total:    rec.Total.StringFixed(2),
		Currency: s.currency,
		Lines:    make([]queue.OrderLineItem, 0, len(rec.Lines)),
		PlacedAt: s.now().UTC().Format(time.RFC3339),
	}
	for _, l := range rec.Lines {
		ev.Lines = append(ev.Lines, queue.OrderLineItem{
			Item:       l.ItemName,
			Quantity:   l.Quantity,
			TotalPrice: l.TotalPrice.StringFixed(2),
		})
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.PublishOrderPlaced(ctx, ev); err != nil {
		s.log.Warn().Err(err).Int64("order_id", rec.OrderID).Msg("order placed event not published")
	}
}

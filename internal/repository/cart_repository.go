package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/food-order-webhook/internal/model"
)

// CartRepo provides data access to the `orders` table, which holds the
// lines of every open cart keyed by (order_id, item_id).  Quantity changes
// go through the insert_order_item and remove_order_item stored procedures
// so that concurrent requests for the same line serialize inside MySQL
// instead of racing on a read-then-write here.
type CartRepo struct {
	db *sql.DB
}

// NewCartRepo returns a new CartRepo bound to the given database.
func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// AddItem adds quantity units of itemID to the order.  A new line is
// created on first add; later adds increase the existing line's quantity
// and total.  quantity must be positive.
func (r *CartRepo) AddItem(ctx context.Context, itemID int64, quantity int, orderID int64) error {
	if quantity <= 0 {
		return fmt.Errorf("add item: quantity must be positive, got %d", quantity)
	}
	if _, err := r.db.ExecContext(ctx, `CALL insert_order_item(?, ?, ?)`, itemID, quantity, orderID); err != nil {
		return unavailable("add item", err)
	}
	return nil
}

// RemoveItem decreases the quantity of itemID in the order by quantity,
// floored at zero; a line that reaches zero is deleted.  It returns the
// number of units actually removed.  ErrLineNotFound is returned when the
// order has no line for the item.
//
// The procedure locks the line with SELECT ... FOR UPDATE, so it runs in an
// explicit transaction; the transaction is rolled back on every path that
// does not commit.
func (r *CartRepo) RemoveItem(ctx context.Context, itemID int64, quantity int, orderID int64) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("remove item: quantity must be positive, got %d", quantity)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("remove item", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var removed int
	if err := tx.QueryRowContext(ctx, `CALL remove_order_item(?, ?, ?)`, itemID, quantity, orderID).Scan(&removed); err != nil {
		return 0, unavailable("remove item", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("remove item", err)
	}
	committed = true
	if removed == 0 {
		return 0, ErrLineNotFound
	}
	return removed, nil
}

// OrderTotal returns the sum of total_price over the order's lines.  An
// order without lines totals zero.
func (r *CartRepo) OrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.QueryRowContext(ctx, `SELECT get_total_order_price(?)`, orderID).Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, unavailable("order total", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// OrderSummary returns the order's lines in insertion order.  An empty
// slice is returned for an order without lines.
func (r *CartRepo) OrderSummary(ctx context.Context, orderID int64) ([]model.OrderLine, error) {
	const q = `SELECT o.item_id, f.name, o.quantity, o.total_price
               FROM orders o
               JOIN food_items f ON f.item_id = o.item_id
               WHERE o.order_id = ?
               ORDER BY o.created_at, o.item_id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, unavailable("order summary", err)
	}
	defer rows.Close()
	lines := []model.OrderLine{}
	for rows.Next() {
		l := model.OrderLine{OrderID: orderID}
		if err := rows.Scan(&l.ItemID, &l.ItemName, &l.Quantity, &l.TotalPrice); err != nil {
			return nil, unavailable("order summary", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("order summary", err)
	}
	return lines, nil
}

// ClearOrder deletes every line of the order.  Clearing an empty order
// succeeds.
func (r *CartRepo) ClearOrder(ctx context.Context, orderID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id = ?`, orderID); err != nil {
		return unavailable("clear order", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/food-order-webhook/internal/model"
)

// MenuRepo reads the food_items catalog.  The catalog is reference data
// managed out of band; this repository never writes to it.
type MenuRepo struct {
	db *sql.DB
}

// NewMenuRepo returns a new MenuRepo bound to the provided database.
func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

// LookupItemID returns the item_id for name using a case-insensitive exact
// match.  ErrItemNotFound is returned when no item matches.
func (r *MenuRepo) LookupItemID(ctx context.Context, name string) (int64, error) {
	const q = `SELECT item_id FROM food_items WHERE LOWER(name) = ? LIMIT 1`
	var id int64
	err := r.db.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(name))).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrItemNotFound
	}
	if err != nil {
		return 0, unavailable("lookup item", err)
	}
	return id, nil
}

// Menu returns every catalog item ordered by item_id.
func (r *MenuRepo) Menu(ctx context.Context) ([]model.FoodItem, error) {
	const q = `SELECT item_id, name, price FROM food_items ORDER BY item_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, unavailable("menu", err)
	}
	defer rows.Close()
	items := []model.FoodItem{}
	for rows.Next() {
		var it model.FoodItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Price); err != nil {
			return nil, unavailable("menu", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("menu", err)
	}
	return items, nil
}

// Ping verifies the database is reachable.  It backs the readiness probe.
func (r *MenuRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/food-order-webhook/internal/model"
)

// TrackingRepo persists fulfilment status in `order_tracking`, one row per
// completed order.
type TrackingRepo struct{ db *sql.DB }

func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{db: db} }

// FinalizeTracking records the order as placed with status "preparing".
// Calling it again for the same order resets the row to "preparing"
// rather than inserting a duplicate.
func (r *TrackingRepo) FinalizeTracking(ctx context.Context, orderID int64) error {
	if _, err := r.db.ExecContext(ctx, `CALL finalize_order_tracking(?)`, orderID); err != nil {
		return unavailable("finalize tracking", err)
	}
	return nil
}

// TrackingStatus returns the current status, or ErrTrackingNotFound.
func (r *TrackingRepo) TrackingStatus(ctx context.Context, orderID int64) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		"SELECT status FROM order_tracking WHERE order_id = ? LIMIT 1", orderID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTrackingNotFound
	}
	if err != nil {
		return "", unavailable("tracking status", err)
	}
	return status, nil
}

// SetStatus moves a tracked order to a new status.
func (r *TrackingRepo) SetStatus(ctx context.Context, orderID int64, status string) error {
	if !model.ValidStatus(status) {
		return ErrInvalidStatus
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE order_tracking SET status = ? WHERE order_id = ?", status, orderID)
	if err != nil {
		return unavailable("set status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("set status", err)
	}
	if n == 0 {
		// MySQL reports 0 for an unchanged row too; tell the two apart
		if _, err := r.TrackingStatus(ctx, orderID); err != nil {
			return err
		}
	}
	return nil
}

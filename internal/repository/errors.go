// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers to distinguish
// "the thing is not there" from "the database could not be asked": a
// lookup that finds nothing returns one of the not-found sentinels, while
// any driver, connection or timeout failure is wrapped with
// ErrStorageUnavailable.  Callers test with errors.Is.
package repository

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable wraps every failure talking to MySQL.  The wrapped
// driver error is kept for logs and must not reach end users.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrItemNotFound is returned when a food item name is not in the catalog.
var ErrItemNotFound = errors.New("food item not found")

// ErrLineNotFound is returned by RemoveItem when the order has no line
// for the item, so there is nothing to remove.
var ErrLineNotFound = errors.New("order line not found")

// ErrTrackingNotFound is returned when no tracking row exists for an order.
var ErrTrackingNotFound = errors.New("order tracking not found")

// ErrInvalidStatus is returned by SetStatus for statuses outside the known set.
var ErrInvalidStatus = errors.New("invalid tracking status")

// unavailable wraps a driver error with ErrStorageUnavailable and the
// operation name.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

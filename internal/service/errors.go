package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/food-order-webhook/internal/repository"
)

// Error taxonomy of the order session layer.  Handlers choose the reply
// text with errors.Is; none of these carry driver detail a user could see.
var (
	// ErrValidation marks malformed or inconsistent request parameters.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound marks a referenced order or tracking record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart is returned when completing an order whose total is zero.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrStorageUnavailable is the repository sentinel, re-exported so
	// handlers depend on one package for error checks.
	ErrStorageUnavailable = repository.ErrStorageUnavailable
)

// Validation failures.  Each wraps ErrValidation.
var (
	ErrNoItems          = fmt.Errorf("%w: no food items given", ErrValidation)
	ErrQuantityMismatch = fmt.Errorf("%w: item and quantity counts differ", ErrValidation)
	ErrBadQuantity      = fmt.Errorf("%w: quantity must be a positive whole number", ErrValidation)
	ErrBadOrderID       = fmt.Errorf("%w: order id must be a positive whole number", ErrValidation)
)

package service

import "strings"

// ItemRequest is one validated (item, quantity) pair of an add or remove
// request.  Name is trimmed and lower-cased for menu lookup; Display keeps
// the caller's casing for replies.
type ItemRequest struct {
	Name     string
	Display  string
	Quantity int
}

// NormalizeItems pairs item names with quantities.  A nil or empty
// quantities slice means one of each item; otherwise both slices must have
// the same length.  Every quantity must be positive.  Blank names are
// skipped, and a request left with no names fails with ErrNoItems.
func NormalizeItems(names []string, quantities []int) ([]ItemRequest, error) {
	if len(names) == 0 {
		return nil, ErrNoItems
	}
	if len(quantities) == 0 {
		quantities = make([]int, len(names))
		for i := range quantities {
			quantities[i] = 1
		}
	}
	if len(quantities) != len(names) {
		return nil, ErrQuantityMismatch
	}
	out := make([]ItemRequest, 0, len(names))
	for i, raw := range names {
		display := strings.TrimSpace(raw)
		if display == "" {
			continue
		}
		if quantities[i] <= 0 {
			return nil, ErrBadQuantity
		}
		out = append(out, ItemRequest{Name: strings.ToLower(display), Display: display, Quantity: quantities[i]})
	}
	if len(out) == 0 {
		return nil, ErrNoItems
	}
	return out, nil
}

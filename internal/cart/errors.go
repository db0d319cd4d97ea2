package cart

import "errors"

var (
	// ErrInvalidSelection means the menu item carries no size/price pairs.
	ErrInvalidSelection = errors.New("menu item has no prices")

	// ErrUnknownSize means the requested size is not offered for the item.
	ErrUnknownSize = errors.New("unknown size for menu item")

	// ErrLineNotFound means the line id does not exist in the cart; callers
	// holding one are working from a stale render.
	ErrLineNotFound = errors.New("line item not found")

	// ErrEmptyCart means a snapshot was requested from a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")
)

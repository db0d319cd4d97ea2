// Package cart implements the shopping cart and order-pricing engine for one
// ordering session. It performs no I/O: callers own a Cart value, mutate it
// through the methods here, and read the recomputed totals back. All money is
// int64 kobo.
package cart

import (
	"sort"

	"github.com/google/uuid"

	"manai-service/internal/models"
)

// Pricing is the delivery-fee policy applied to a cart. The fee is waived
// when the subtotal strictly exceeds the threshold.
type Pricing struct {
	FreeDeliveryThreshold int64
	DeliveryFee           int64
}

// Selection is a menu item the customer has picked but not yet sized.
type Selection struct {
	ItemID      string
	Name        string
	Prices      models.PriceMap
	PrepMinutes int
}

// PricedSelection pins a selection to one size and unit price.
type PricedSelection struct {
	Selection
	Size      string
	UnitPrice int64
}

// LineItem is one (menu item, size) selection with a quantity. Name and unit
// price are copied at add-time and never re-fetched.
type LineItem struct {
	LineID      string `json:"line_id"`
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Size        string `json:"size"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
	PrepMinutes int    `json:"prep_minutes"`
}

// Totals are derived from the lines on every mutation; they are never stored
// independently of them.
type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	DeliveryFee int64 `json:"delivery_fee"`
	Total       int64 `json:"total"`
}

// Cart holds the line items for one ordering session in insertion order.
// Exactly one caller mutates a given cart at a time.
type Cart struct {
	Lines   []LineItem `json:"lines"`
	Totals  Totals     `json:"totals"`
	pricing Pricing
}

// New returns an empty cart priced under p.
func New(p Pricing) *Cart {
	c := &Cart{pricing: p}
	c.recompute()
	return c
}

// Reprice re-attaches a pricing policy and recomputes totals. Used after a
// cart is decoded from session storage, where the policy is not persisted.
func (c *Cart) Reprice(p Pricing) {
	c.pricing = p
	c.recompute()
}

// Select records a menu item as the active selection. The cart is not
// touched until the selection is sized and added.
func Select(item *models.MenuItem) (*Selection, error) {
	if len(item.Prices) == 0 {
		return nil, ErrInvalidSelection
	}
	return &Selection{
		ItemID:      item.ID,
		Name:        item.Name,
		Prices:      item.Prices,
		PrepMinutes: item.PrepMinutes,
	}, nil
}

// DefaultSize returns medium when offered, otherwise the lexicographically
// first size label. The tie-break must be deterministic; map iteration order
// is not.
func (s *Selection) DefaultSize() string {
	if _, ok := s.Prices["medium"]; ok {
		return "medium"
	}
	labels := make([]string, 0, len(s.Prices))
	for label := range s.Prices {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels[0]
}

// WithSize resolves a size label against the selection's price list.
func (s *Selection) WithSize(size string) (*PricedSelection, error) {
	price, ok := s.Prices[size]
	if !ok {
		return nil, ErrUnknownSize
	}
	return &PricedSelection{Selection: *s, Size: size, UnitPrice: price}, nil
}

// Add puts a priced selection into the cart. Quantities below 1 are clamped
// to 1 rather than rejected, since they are user-correctable input. A second
// add of the same (item, size) pair raises that line's quantity instead of
// appending a new line.
func (c *Cart) Add(ps *PricedSelection, quantity int) *LineItem {
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.Lines {
		if c.Lines[i].ItemID == ps.ItemID && c.Lines[i].Size == ps.Size {
			c.Lines[i].Quantity += quantity
			c.Lines[i].LineTotal = c.Lines[i].UnitPrice * int64(c.Lines[i].Quantity)
			c.recompute()
			return &c.Lines[i]
		}
	}

	line := LineItem{
		LineID:      uuid.NewString(),
		ItemID:      ps.ItemID,
		Name:        ps.Name,
		Size:        ps.Size,
		UnitPrice:   ps.UnitPrice,
		Quantity:    quantity,
		LineTotal:   ps.UnitPrice * int64(quantity),
		PrepMinutes: ps.PrepMinutes,
	}
	c.Lines = append(c.Lines, line)
	c.recompute()
	return &c.Lines[len(c.Lines)-1]
}

// SetQuantity sets a line's quantity directly, clamped to a minimum of 1.
// Dropping to zero never removes the line; removal is its own operation.
func (c *Cart) SetQuantity(lineID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			c.Lines[i].Quantity = quantity
			c.Lines[i].LineTotal = c.Lines[i].UnitPrice * int64(quantity)
			c.recompute()
			return nil
		}
	}
	return ErrLineNotFound
}

// AdjustQuantity changes a line's quantity by delta, clamped to a minimum of 1.
func (c *Cart) AdjustQuantity(lineID string, delta int) error {
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			return c.SetQuantity(lineID, c.Lines[i].Quantity+delta)
		}
	}
	return ErrLineNotFound
}

// Remove deletes a line from the cart.
func (c *Cart) Remove(lineID string) error {
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.recompute()
			return nil
		}
	}
	return ErrLineNotFound
}

// Clear empties the cart. The presentation layer confirms with the user
// before calling this.
func (c *Cart) Clear() {
	c.Lines = nil
	c.recompute()
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// MaxPrepMinutes returns the longest preparation time across the lines.
func (c *Cart) MaxPrepMinutes() int {
	max := 0
	for _, line := range c.Lines {
		if line.PrepMinutes > max {
			max = line.PrepMinutes
		}
	}
	return max
}

// Snapshot returns a copy of the lines and totals for order submission. The
// copy is independent of the cart, so later cart mutations cannot reach into
// a submitted order.
func (c *Cart) Snapshot() ([]LineItem, Totals, error) {
	if c.IsEmpty() {
		return nil, Totals{}, ErrEmptyCart
	}
	lines := make([]LineItem, len(c.Lines))
	copy(lines, c.Lines)
	return lines, c.Totals, nil
}

func (c *Cart) recompute() {
	c.Totals = c.pricing.Compute(c.Lines)
}

// Compute derives totals from a set of lines. It is a pure function:
// calling it twice on the same lines yields identical results.
func (p Pricing) Compute(lines []LineItem) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}

	var fee int64
	if subtotal > 0 && subtotal <= p.FreeDeliveryThreshold {
		fee = p.DeliveryFee
	}

	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal + fee,
	}
}

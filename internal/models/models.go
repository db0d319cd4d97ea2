package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PriceMap maps a size label (small/medium/large, extensible) to a price in
// kobo. Stored as JSONB in postgres.
type PriceMap map[string]int64

func (p PriceMap) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PriceMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into PriceMap", src)
	}
}

// MenuItem represents a dish on the menu. Every item carries at least one
// size/price pair.
type MenuItem struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	PrepMinutes int       `db:"prep_minutes" json:"prep_minutes"`
	Prices      PriceMap  `db:"prices" json:"prices"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Order is a finalized order snapshot. Immutable once written except for the
// delivery status, which the admin moves forward.
type Order struct {
	ID               string    `db:"id" json:"id"`
	CustomerName     string    `db:"customer_name" json:"customer_name"`
	CustomerPhone    string    `db:"customer_phone" json:"customer_phone"`
	CustomerAddress  string    `db:"customer_address" json:"customer_address"`
	Subtotal         int64     `db:"subtotal" json:"subtotal"`
	DeliveryFee      int64     `db:"delivery_fee" json:"delivery_fee"`
	Total            int64     `db:"total" json:"total"`
	Status           string    `db:"status" json:"status"`
	PaymentProof     string    `db:"payment_proof" json:"-"`
	PaymentProofName string    `db:"payment_proof_name" json:"payment_proof_name"`
	OrderDate        time.Time `db:"order_date" json:"order_date"`
	EstimatedMinutes int       `db:"estimated_minutes" json:"estimated_minutes"`
	Completed        bool      `db:"completed" json:"completed"`
	ReviewProvided   bool      `db:"review_provided" json:"review_provided"`
	VoucherCode      string    `db:"voucher_code" json:"voucher_code"`
	VoucherAmount    int64     `db:"voucher_amount" json:"voucher_amount"`
	VoucherExpiresAt time.Time `db:"voucher_expires_at" json:"voucher_expires_at"`
}

// OrderItem is one line of an order snapshot. Name and unit price are copied
// at submission time, not re-fetched from the menu.
type OrderItem struct {
	ID         int64  `db:"id" json:"id"`
	OrderID    string `db:"order_id" json:"order_id"`
	MenuItemID string `db:"menu_item_id" json:"menu_item_id"`
	Name       string `db:"name" json:"name"`
	Size       string `db:"size" json:"size"`
	Quantity   int    `db:"quantity" json:"quantity"`
	UnitPrice  int64  `db:"unit_price" json:"unit_price"`
	LineTotal  int64  `db:"line_total" json:"line_total"`
}

// Review is created blank when an order completes; the customer fills it in
// later and the admin may attach a bonus coin.
type Review struct {
	ID           string    `db:"id" json:"id"`
	OrderID      string    `db:"order_id" json:"order_id"`
	CustomerName string    `db:"customer_name" json:"customer_name"`
	Rating       int       `db:"rating" json:"rating"`
	Comment      string    `db:"comment" json:"comment"`
	ReviewDate   time.Time `db:"review_date" json:"review_date"`
	BonusCoin    string    `db:"bonus_coin" json:"bonus_coin,omitempty"`
}

// Voucher is the promotional discount attached to every placed order.
type Voucher struct {
	Code      string    `json:"code"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusPreparing  = "preparing"
	OrderStatusDelivering = "delivering"
	OrderStatusCompleted  = "completed"
)

// ValidOrderStatus reports whether s is a known delivery status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusDelivering, OrderStatusCompleted:
		return true
	}
	return false
}

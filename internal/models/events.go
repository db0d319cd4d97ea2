package models

import "time"

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when a customer places an order
type OrderPlacedEvent struct {
	BaseEvent
	OrderID      string          `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	Total        int64           `json:"total"`
	VoucherCode  string          `json:"voucher_code"`
	Items        []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published when an admin moves an order forward
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

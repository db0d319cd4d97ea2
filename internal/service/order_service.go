package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"manai-service/internal/cart"
	"manai-service/internal/models"
	"manai-service/internal/store"
	"manai-service/internal/util"
)

// ErrMissingCustomerInfo means name, phone or address was blank.
var ErrMissingCustomerInfo = errors.New("customer name, phone and address are required")

// ErrOrderNotFound covers both a genuinely unknown order id and a phone
// mismatch during tracking; the two are indistinguishable to the caller on
// purpose.
var ErrOrderNotFound = errors.New("order not found")

// Payment proof rejection reasons.
const (
	ProofMissing         = "missing"
	ProofTooLarge        = "too_large"
	ProofUnsupportedType = "unsupported_type"
)

// InvalidPaymentProofError names the specific violation so the caller can
// tell the customer what to fix.
type InvalidPaymentProofError struct {
	Reason string
}

func (e *InvalidPaymentProofError) Error() string {
	return fmt.Sprintf("invalid payment proof: %s", e.Reason)
}

// CustomerInfo is the delivery contact entered at checkout.
type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// PaymentProof is the uploaded transfer screenshot.
type PaymentProof struct {
	Filename string
	Data     []byte
}

// OrderSink is the durable store that accepts finalized order snapshots and
// assigns identifiers.
type OrderSink interface {
	SaveOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
}

// OrderEventPublisher announces order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService turns a session cart into a durable order and serves order
// reads for tracking and the admin dashboard.
type OrderService struct {
	sink            OrderSink
	publisher       OrderEventPublisher
	maxProofBytes   int64
	voucherValidity time.Duration
	logger          *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(sink OrderSink, publisher OrderEventPublisher, maxProofBytes int64, voucherValidity time.Duration) *OrderService {
	return &OrderService{
		sink:            sink,
		publisher:       publisher,
		maxProofBytes:   maxProofBytes,
		voucherValidity: voucherValidity,
		logger:          util.GetLogger(),
	}
}

var acceptedProofTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *OrderService) validateProof(proof *PaymentProof) error {
	if proof == nil || len(proof.Data) == 0 {
		util.PaymentProofRejectedTotal.WithLabelValues(ProofMissing).Inc()
		return &InvalidPaymentProofError{Reason: ProofMissing}
	}
	if int64(len(proof.Data)) > s.maxProofBytes {
		util.PaymentProofRejectedTotal.WithLabelValues(ProofTooLarge).Inc()
		return &InvalidPaymentProofError{Reason: ProofTooLarge}
	}
	// Sniff the content rather than trusting the upload's declared type.
	if !acceptedProofTypes[http.DetectContentType(proof.Data)] {
		util.PaymentProofRejectedTotal.WithLabelValues(ProofUnsupportedType).Inc()
		return &InvalidPaymentProofError{Reason: ProofUnsupportedType}
	}
	return nil
}

// PlaceOrder freezes the cart into an order snapshot, generates the
// promotional voucher, and hands the snapshot to the sink. All validation
// happens before any store or broker interaction; on any failure the cart is
// left exactly as it was so the customer can retry.
func (s *OrderService) PlaceOrder(ctx context.Context, c *cart.Cart, info CustomerInfo, proof *PaymentProof) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderPlacementLatency.Observe(time.Since(start).Seconds())
	}()

	lines, totals, err := c.Snapshot()
	if err != nil {
		util.OrdersRejectedTotal.WithLabelValues("empty_cart").Inc()
		return nil, err
	}

	if strings.TrimSpace(info.Name) == "" ||
		strings.TrimSpace(info.Phone) == "" ||
		strings.TrimSpace(info.Address) == "" {
		util.OrdersRejectedTotal.WithLabelValues("missing_customer_info").Inc()
		return nil, ErrMissingCustomerInfo
	}

	if err := s.validateProof(proof); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("invalid_payment_proof").Inc()
		return nil, err
	}

	now := time.Now()
	voucher := NewVoucher(s.voucherValidity, now)

	order := &models.Order{
		CustomerName:     info.Name,
		CustomerPhone:    info.Phone,
		CustomerAddress:  info.Address,
		Subtotal:         totals.Subtotal,
		DeliveryFee:      totals.DeliveryFee,
		Total:            totals.Total,
		Status:           models.OrderStatusPending,
		PaymentProof:     base64.StdEncoding.EncodeToString(proof.Data),
		PaymentProofName: proof.Filename,
		OrderDate:        now,
		EstimatedMinutes: c.MaxPrepMinutes() + 30,
		VoucherCode:      voucher.Code,
		VoucherAmount:    voucher.Amount,
		VoucherExpiresAt: voucher.ExpiresAt,
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			MenuItemID: line.ItemID,
			Name:       line.Name,
			Size:       line.Size,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			LineTotal:  line.LineTotal,
		})
	}

	if err := s.sink.SaveOrder(ctx, order, items); err != nil {
		util.OrderSinkFailuresTotal.WithLabelValues(sinkFailureClass(err)).Inc()
		s.logger.Error("Failed to persist order",
			zap.String("customer", info.Name),
			zap.Error(err))
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	util.VouchersIssuedTotal.WithLabelValues(strconv.FormatInt(voucher.Amount, 10)).Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.Int64("total", order.Total),
		zap.String("voucher", voucher.Code))

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: now,
		},
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		VoucherCode:  order.VoucherCode,
		Items:        eventItems(items),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return order, nil
}

func eventItems(items []models.OrderItem) []models.OrderItemData {
	out := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItemData{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Size:       item.Size,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	return out
}

func sinkFailureClass(err error) string {
	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, store.ErrUnavailable):
		return "unavailable"
	default:
		return "unknown"
	}
}

// GetOrder retrieves an order and its lines
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderItem, error) {
	order, err := s.sink.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}

	items, err := s.sink.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// UpdateStatus moves an order's delivery status forward and announces the
// change. The review worker reacts to completions downstream.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, newStatus string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	order, err := s.sink.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	if err := s.sink.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		return err
	}

	util.OrderStatusUpdatesTotal.WithLabelValues(newStatus).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", newStatus))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:      orderID,
		CustomerName: order.CustomerName,
		OldStatus:    order.Status,
		NewStatus:    newStatus,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"manai-service/internal/models"
	"manai-service/internal/util"
)

// TrackedOrder is what the tracking page renders: the order, its lines, and
// a human-readable delivery countdown.
type TrackedOrder struct {
	Order            *models.Order      `json:"order"`
	Items            []models.OrderItem `json:"items"`
	DeliveryEstimate string             `json:"delivery_estimate"`
}

// TrackOrder looks an order up by id and verifies the caller knows the phone
// number it was placed with. A mismatch reads the same as a missing order.
func (s *OrderService) TrackOrder(ctx context.Context, orderID, phone string) (*TrackedOrder, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.TrackOrder")
	defer span.End()

	order, items, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.CustomerPhone != phone {
		return nil, ErrOrderNotFound
	}

	return &TrackedOrder{
		Order:            order,
		Items:            items,
		DeliveryEstimate: DeliveryCountdown(order, time.Now()),
	}, nil
}

// DeliveryCountdown renders the time remaining until the estimated delivery.
func DeliveryCountdown(order *models.Order, now time.Time) string {
	if order.Status == models.OrderStatusCompleted {
		return "Delivered"
	}

	eta := order.OrderDate.Add(time.Duration(order.EstimatedMinutes) * time.Minute)
	if !now.Before(eta) {
		return "Should be delivered soon"
	}

	mins := int(eta.Sub(now).Minutes())
	hours := mins / 60
	remaining := mins % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm remaining", hours, remaining)
	case remaining > 0:
		return fmt.Sprintf("%d minutes remaining", remaining)
	default:
		return "Arriving soon"
	}
}

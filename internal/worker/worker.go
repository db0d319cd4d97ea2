package worker

import (
	"context"

	"go.uber.org/zap"

	"manai-service/internal/broker"
	"manai-service/internal/models"
	"manai-service/internal/service"
	"manai-service/internal/util"
)

// ReviewWorker consumes order status events and opens a review slot whenever
// an order reaches completed.
type ReviewWorker struct {
	consumer *broker.Consumer
	handler  *broker.EventHandler
	reviews  *service.ReviewService
	logger   *zap.Logger
}

// NewReviewWorker creates a new review worker
func NewReviewWorker(consumer *broker.Consumer, reviews *service.ReviewService) *ReviewWorker {
	w := &ReviewWorker{
		consumer: consumer,
		handler:  broker.NewEventHandler(),
		reviews:  reviews,
		logger:   util.GetLogger(),
	}

	w.handler.OnOrderStatusChanged(w.handleStatusChanged)
	return w
}

func (w *ReviewWorker) handleStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	if event.NewStatus != models.OrderStatusCompleted {
		return nil
	}

	w.logger.Info("Order completed, opening review slot",
		zap.String("order_id", event.OrderID))

	if err := w.reviews.HandleOrderCompleted(ctx, event.OrderID, event.CustomerName); err != nil {
		w.logger.Error("Failed to handle order completion",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}

	return nil
}

// Start runs the consume loop until the context is cancelled.
func (w *ReviewWorker) Start(ctx context.Context) error {
	w.logger.Info("Review worker starting")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop closes the underlying consumer.
func (w *ReviewWorker) Stop() error {
	w.logger.Info("Review worker stopping")
	return w.consumer.Close()
}

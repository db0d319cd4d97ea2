package service

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"manai-service/internal/models"
	"manai-service/internal/store"
	"manai-service/internal/util"
)

const (
	bonusCoinPrefix   = "MN"
	bonusCoinLength   = 8
	bonusCoinAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ReviewService manages customer reviews and the bonus coins granted for them.
type ReviewService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store *store.Store) *ReviewService {
	return &ReviewService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// HandleOrderCompleted marks the order completed and opens a blank review slot
// for the customer. Idempotent: a second completion event for the same order
// leaves the existing review alone.
func (rs *ReviewService) HandleOrderCompleted(ctx context.Context, orderID, customerName string) error {
	ctx, span := util.StartSpan(ctx, "ReviewService.HandleOrderCompleted")
	defer span.End()

	if err := rs.store.MarkOrderCompleted(ctx, orderID); err != nil {
		return err
	}

	existing, err := rs.store.GetReviewByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	review := &models.Review{
		OrderID:      orderID,
		CustomerName: customerName,
		Rating:       0,
		ReviewDate:   time.Now(),
	}
	if err := rs.store.CreateReview(ctx, review); err != nil {
		return err
	}

	util.ReviewsCreatedTotal.Inc()
	rs.logger.Info("Review slot created",
		zap.String("order_id", orderID),
		zap.String("review_id", review.ID))
	return nil
}

// ListReviews retrieves all reviews, newest first
func (rs *ReviewService) ListReviews(ctx context.Context) ([]models.Review, error) {
	return rs.store.ListReviews(ctx)
}

// GenerateBonusCoin issues a redeemable coin code for a review and stores it
// on the review row.
func (rs *ReviewService) GenerateBonusCoin(ctx context.Context, reviewID string) (string, error) {
	review, err := rs.store.GetReviewByID(ctx, reviewID)
	if err != nil {
		return "", err
	}

	coin := bonusCoin()
	if err := rs.store.UpdateReviewBonusCoin(ctx, reviewID, coin); err != nil {
		return "", err
	}

	rs.logger.Info("Bonus coin issued",
		zap.String("review_id", reviewID),
		zap.String("order_id", review.OrderID))
	return coin, nil
}

func bonusCoin() string {
	code := make([]byte, bonusCoinLength)
	for i := range code {
		code[i] = bonusCoinAlphabet[rand.Intn(len(bonusCoinAlphabet))]
	}
	return bonusCoinPrefix + string(code)
}

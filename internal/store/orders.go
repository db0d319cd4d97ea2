package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"manai-service/internal/models"
)

// SaveOrder writes an order snapshot and its lines in one transaction and
// assigns the order id. Either everything lands or nothing does.
func (s *Store) SaveOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Classify(err)
	}
	defer tx.Rollback()

	order.ID = uuid.NewString()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (
			id, customer_name, customer_phone, customer_address,
			subtotal, delivery_fee, total, status,
			payment_proof, payment_proof_name, order_date, estimated_minutes,
			completed, review_provided, voucher_code, voucher_amount, voucher_expires_at
		) VALUES (
			:id, :customer_name, :customer_phone, :customer_address,
			:subtotal, :delivery_fee, :total, :status,
			:payment_proof, :payment_proof_name, :order_date, :estimated_minutes,
			:completed, :review_provided, :voucher_code, :voucher_amount, :voucher_expires_at
		)`, order)
	if err != nil {
		return Classify(err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO order_items (order_id, menu_item_id, name, size, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			items[i].OrderID, items[i].MenuItemID, items[i].Name, items[i].Size,
			items[i].Quantity, items[i].UnitPrice, items[i].LineTotal)
		if err != nil {
			return Classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Classify(err)
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all lines of an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderItemsByOrderIDs retrieves the lines of many orders at once
func (s *Store) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []string) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []models.OrderItem{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM order_items WHERE order_id IN (?)", orderIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

// ListOrders retrieves orders newest first, optionally filtered by status
func (s *Store) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	if status == "" || status == "all" {
		err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY order_date DESC")
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY order_date DESC", status)
	return orders, err
}

// GetOrdersBetween retrieves orders placed within [start, end]
func (s *Store) GetOrdersBetween(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE order_date >= $1 AND order_date <= $2 ORDER BY order_date DESC",
		start, end)
	return orders, err
}

// UpdateOrderStatus moves an order's delivery status forward
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

// MarkOrderCompleted sets the completed flag once the order is delivered
func (s *Store) MarkOrderCompleted(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET completed = TRUE WHERE id = $1", orderID)
	return err
}

// StatusCounts returns the number of orders per delivery status
func (s *Store) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS count FROM orders GROUP BY status")
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CreateReview inserts a review row, assigning its id
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, order_id, customer_name, rating, comment, review_date, bonus_coin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.OrderID, review.CustomerName, review.Rating,
		review.Comment, review.ReviewDate, review.BonusCoin)
	return err
}

// GetReviewByOrderID retrieves the review attached to an order, if any
func (s *Store) GetReviewByOrderID(ctx context.Context, orderID string) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review, "SELECT * FROM reviews WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetReviewByID retrieves a review
func (s *Store) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review, "SELECT * FROM reviews WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListReviews retrieves reviews newest first
func (s *Store) ListReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews, "SELECT * FROM reviews ORDER BY review_date DESC")
	return reviews, err
}

// UpdateReviewBonusCoin attaches a bonus coin to a review
func (s *Store) UpdateReviewBonusCoin(ctx context.Context, reviewID, coin string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE reviews SET bonus_coin = $1 WHERE id = $2", coin, reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("review %s: %w", reviewID, ErrNotFound)
	}
	return nil
}

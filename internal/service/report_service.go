package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"manai-service/internal/models"
	"manai-service/internal/store"
	"manai-service/internal/util"
)

// Report is the admin sales summary for a date range.
type Report struct {
	TotalOrders       int       `json:"total_orders"`
	CompletedOrders   int       `json:"completed_orders"`
	TotalRevenue      int64     `json:"total_revenue"`
	AverageOrderValue int64     `json:"average_order_value"`
	TopItems          []TopItem `json:"top_items"`
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
}

// TopItem aggregates one dish across all orders in the range.
type TopItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Revenue  int64  `json:"revenue"`
}

// ReportService aggregates orders for the admin dashboard.
type ReportService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store *store.Store) *ReportService {
	return &ReportService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// Range builds a report for [start, end]; the end date is taken to mean the
// whole of that day.
func (rs *ReportService) Range(ctx context.Context, start, end time.Time) (*Report, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Range")
	defer span.End()

	end = endOfDay(end)
	orders, err := rs.store.GetOrdersBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	items, err := rs.itemsFor(ctx, orders)
	if err != nil {
		return nil, err
	}

	report := Aggregate(orders, items)
	report.From = start
	report.To = end
	return report, nil
}

// Quick builds a report for a named range: today, week, month or all.
func (rs *ReportService) Quick(ctx context.Context, rangeName string, now time.Time) (*Report, error) {
	start, err := quickRangeStart(rangeName, now)
	if err != nil {
		return nil, err
	}
	return rs.Range(ctx, start, now)
}

// StatusCounts returns the number of orders per delivery status for the
// dashboard tiles.
func (rs *ReportService) StatusCounts(ctx context.Context) (map[string]int, error) {
	return rs.store.StatusCounts(ctx)
}

func (rs *ReportService) itemsFor(ctx context.Context, orders []models.Order) ([]models.OrderItem, error) {
	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	return rs.store.GetOrderItemsByOrderIDs(ctx, ids)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func quickRangeStart(rangeName string, now time.Time) (time.Time, error) {
	switch rangeName {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case "week":
		// Week starts on Sunday.
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return day.AddDate(0, 0, -int(now.Weekday())), nil
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	case "all":
		return time.Unix(0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown report range %q", rangeName)
	}
}

// Aggregate computes the report numbers from a set of orders and their lines.
// Pure: no store access, no clock.
func Aggregate(orders []models.Order, items []models.OrderItem) *Report {
	report := &Report{TotalOrders: len(orders)}

	for _, order := range orders {
		if order.Status == models.OrderStatusCompleted {
			report.CompletedOrders++
		}
		report.TotalRevenue += order.Total
	}
	if report.TotalOrders > 0 {
		report.AverageOrderValue = report.TotalRevenue / int64(report.TotalOrders)
	}

	byName := make(map[string]*TopItem)
	for _, item := range items {
		top, ok := byName[item.Name]
		if !ok {
			top = &TopItem{Name: item.Name}
			byName[item.Name] = top
		}
		top.Quantity += item.Quantity
		top.Revenue += item.LineTotal
	}

	report.TopItems = make([]TopItem, 0, len(byName))
	for _, top := range byName {
		report.TopItems = append(report.TopItems, *top)
	}
	sort.Slice(report.TopItems, func(i, j int) bool {
		if report.TopItems[i].Revenue != report.TopItems[j].Revenue {
			return report.TopItems[i].Revenue > report.TopItems[j].Revenue
		}
		return report.TopItems[i].Name < report.TopItems[j].Name
	})

	return report
}

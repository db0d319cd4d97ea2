package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manai-service/internal/models"
)

func TestAggregate(t *testing.T) {
	orders := []models.Order{
		{ID: "o1", Status: models.OrderStatusCompleted, Total: 330000},
		{ID: "o2", Status: models.OrderStatusPending, Total: 150000},
		{ID: "o3", Status: models.OrderStatusCompleted, Total: 600000},
	}
	items := []models.OrderItem{
		{OrderID: "o1", Name: "Jollof Rice", Quantity: 2, LineTotal: 300000},
		{OrderID: "o2", Name: "Jollof Rice", Quantity: 1, LineTotal: 150000},
		{OrderID: "o3", Name: "Egusi Soup", Quantity: 3, LineTotal: 600000},
	}

	report := Aggregate(orders, items)

	assert.Equal(t, 3, report.TotalOrders)
	assert.Equal(t, 2, report.CompletedOrders)
	assert.Equal(t, int64(1080000), report.TotalRevenue)
	assert.Equal(t, int64(360000), report.AverageOrderValue)

	require.Len(t, report.TopItems, 2)
	assert.Equal(t, TopItem{Name: "Egusi Soup", Quantity: 3, Revenue: 600000}, report.TopItems[0])
	assert.Equal(t, TopItem{Name: "Jollof Rice", Quantity: 3, Revenue: 450000}, report.TopItems[1])
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil, nil)

	assert.Equal(t, 0, report.TotalOrders)
	assert.Equal(t, int64(0), report.TotalRevenue)
	assert.Equal(t, int64(0), report.AverageOrderValue)
	assert.Empty(t, report.TopItems)
}

func TestAggregateTopItemsTieBreak(t *testing.T) {
	items := []models.OrderItem{
		{OrderID: "o1", Name: "Moi Moi", Quantity: 1, LineTotal: 50000},
		{OrderID: "o1", Name: "Akara", Quantity: 1, LineTotal: 50000},
	}

	report := Aggregate([]models.Order{{ID: "o1", Total: 100000}}, items)

	require.Len(t, report.TopItems, 2)
	assert.Equal(t, "Akara", report.TopItems[0].Name)
	assert.Equal(t, "Moi Moi", report.TopItems[1].Name)
}

func TestQuickRangeStart(t *testing.T) {
	// Wednesday 2024-06-12, 15:30 Lagos time.
	lagos := time.FixedZone("WAT", 3600)
	now := time.Date(2024, 6, 12, 15, 30, 0, 0, lagos)

	cases := []struct {
		name string
		want time.Time
	}{
		{"today", time.Date(2024, 6, 12, 0, 0, 0, 0, lagos)},
		{"week", time.Date(2024, 6, 9, 0, 0, 0, 0, lagos)},
		{"month", time.Date(2024, 6, 1, 0, 0, 0, 0, lagos)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, err := quickRangeStart(tc.name, now)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(start), "want %v, got %v", tc.want, start)
		})
	}

	start, err := quickRangeStart("all", now)
	require.NoError(t, err)
	assert.True(t, start.Before(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err = quickRangeStart("fortnight", now)
	assert.Error(t, err)
}

func TestEndOfDay(t *testing.T) {
	end := endOfDay(time.Date(2024, 6, 12, 9, 15, 0, 0, time.UTC))

	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())
	assert.Equal(t, 59, end.Second())
	assert.True(t, end.Before(time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)))
}

func TestSampleMenu(t *testing.T) {
	items := []models.MenuItem{
		{ID: "a", Name: "Jollof Rice"},
		{ID: "b", Name: "Egusi Soup"},
		{ID: "c", Name: "Suya"},
	}

	sampled := sampleMenu(items, 2)
	assert.Len(t, sampled, 2)

	sampled = sampleMenu(items, 10)
	assert.Len(t, sampled, 3)

	// Sampling must not reorder the caller's slice.
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, "c", items[2].ID)
}

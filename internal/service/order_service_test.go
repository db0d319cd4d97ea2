package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manai-service/internal/cart"
	"manai-service/internal/models"
	"manai-service/internal/store"
)

type fakeSink struct {
	saved      []*models.Order
	savedItems [][]models.OrderItem
	saveErr    error
	orders     map[string]*models.Order
	items      map[string][]models.OrderItem
	statuses   map[string]string
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		orders:   make(map[string]*models.Order),
		items:    make(map[string][]models.OrderItem),
		statuses: make(map[string]string),
	}
}

func (f *fakeSink) SaveOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	order.ID = "order-1"
	f.saved = append(f.saved, order)
	f.savedItems = append(f.savedItems, items)
	f.orders[order.ID] = order
	f.items[order.ID] = items
	return nil
}

func (f *fakeSink) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return order, nil
}

func (f *fakeSink) GetOrderItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeSink) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	if _, ok := f.orders[orderID]; !ok {
		return store.ErrNotFound
	}
	f.statuses[orderID] = status
	return nil
}

type fakePublisher struct {
	placed        []*models.OrderPlacedEvent
	statusChanged []*models.OrderStatusChangedEvent
	err           error
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.placed = append(f.placed, event)
	return nil
}

func (f *fakePublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.statusChanged = append(f.statusChanged, event)
	return nil
}

var testCustomer = CustomerInfo{
	Name:    "Amaka Obi",
	Phone:   "08012345678",
	Address: "14 Adeola Odeku St, Victoria Island, Lagos",
}

// pngProof renders a real PNG so content sniffing sees an image, not just a
// filename claiming to be one.
func pngProof(t *testing.T) *PaymentProof {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &PaymentProof{Filename: "transfer.png", Data: buf.Bytes()}
}

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New(cart.Pricing{FreeDeliveryThreshold: 500000, DeliveryFee: 30000})
	sel, err := cart.Select(&models.MenuItem{
		ID:          "jollof-1",
		Name:        "Jollof Rice",
		Prices:      models.PriceMap{"small": 100000, "medium": 150000, "large": 200000},
		PrepMinutes: 25,
	})
	require.NoError(t, err)
	priced, err := sel.WithSize("medium")
	require.NoError(t, err)
	c.Add(priced, 2)
	return c
}

func newTestOrderService(sink *fakeSink, pub *fakePublisher) *OrderService {
	return NewOrderService(sink, pub, 2<<20, 30*24*time.Hour)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	sink := newFakeSink()
	svc := newTestOrderService(sink, &fakePublisher{})

	c := cart.New(cart.Pricing{FreeDeliveryThreshold: 500000, DeliveryFee: 30000})
	_, err := svc.PlaceOrder(context.Background(), c, testCustomer, pngProof(t))

	assert.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Empty(t, sink.saved, "sink should not be contacted for an empty cart")
}

func TestPlaceOrderMissingCustomerInfo(t *testing.T) {
	cases := []struct {
		name string
		info CustomerInfo
	}{
		{"blank name", CustomerInfo{Name: "  ", Phone: "080", Address: "somewhere"}},
		{"blank phone", CustomerInfo{Name: "Amaka", Phone: "", Address: "somewhere"}},
		{"blank address", CustomerInfo{Name: "Amaka", Phone: "080", Address: "\t"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newFakeSink()
			svc := newTestOrderService(sink, &fakePublisher{})

			_, err := svc.PlaceOrder(context.Background(), filledCart(t), tc.info, pngProof(t))

			assert.ErrorIs(t, err, ErrMissingCustomerInfo)
			assert.Empty(t, sink.saved)
		})
	}
}

func TestPlaceOrderProofTooLarge(t *testing.T) {
	sink := newFakeSink()
	svc := newTestOrderService(sink, &fakePublisher{})

	// 3 MiB with a valid PNG header so only the size check can reject it.
	data := make([]byte, 3<<20)
	copy(data, pngProof(t).Data)
	proof := &PaymentProof{Filename: "huge.png", Data: data}

	_, err := svc.PlaceOrder(context.Background(), filledCart(t), testCustomer, proof)

	var proofErr *InvalidPaymentProofError
	require.ErrorAs(t, err, &proofErr)
	assert.Equal(t, ProofTooLarge, proofErr.Reason)
	assert.Empty(t, sink.saved, "sink should not be contacted for an oversized proof")
}

func TestPlaceOrderProofValidation(t *testing.T) {
	cases := []struct {
		name   string
		proof  *PaymentProof
		reason string
	}{
		{"nil proof", nil, ProofMissing},
		{"empty proof", &PaymentProof{Filename: "a.png"}, ProofMissing},
		{"plain text", &PaymentProof{Filename: "a.png", Data: []byte("definitely not an image")}, ProofUnsupportedType},
		{"pdf", &PaymentProof{Filename: "a.pdf", Data: []byte("%PDF-1.7 some content here")}, ProofUnsupportedType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sink := newFakeSink()
			svc := newTestOrderService(sink, &fakePublisher{})

			_, err := svc.PlaceOrder(context.Background(), filledCart(t), testCustomer, tc.proof)

			var proofErr *InvalidPaymentProofError
			require.ErrorAs(t, err, &proofErr)
			assert.Equal(t, tc.reason, proofErr.Reason)
			assert.Empty(t, sink.saved)
		})
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	sink := newFakeSink()
	pub := &fakePublisher{}
	svc := newTestOrderService(sink, pub)

	c := filledCart(t)
	order, err := svc.PlaceOrder(context.Background(), c, testCustomer, pngProof(t))
	require.NoError(t, err)

	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int64(300000), order.Subtotal)
	assert.Equal(t, int64(30000), order.DeliveryFee)
	assert.Equal(t, int64(330000), order.Total)
	assert.Equal(t, 55, order.EstimatedMinutes)
	assert.Equal(t, "transfer.png", order.PaymentProofName)
	assert.NotEmpty(t, order.PaymentProof)

	assert.Regexp(t, regexp.MustCompile(`^MANAI-[A-Z0-9]{6}$`), order.VoucherCode)
	assert.Contains(t, []int64{50000, 20000, 10000, 5000}, order.VoucherAmount)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), order.VoucherExpiresAt, time.Minute)

	require.Len(t, sink.savedItems, 1)
	items := sink.savedItems[0]
	require.Len(t, items, 1)
	assert.Equal(t, "Jollof Rice", items[0].Name)
	assert.Equal(t, "medium", items[0].Size)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(150000), items[0].UnitPrice)
	assert.Equal(t, int64(300000), items[0].LineTotal)

	require.Len(t, pub.placed, 1)
	assert.Equal(t, models.EventTypeOrderPlaced, pub.placed[0].EventType)
	assert.Equal(t, "order-1", pub.placed[0].OrderID)
	assert.Equal(t, int64(330000), pub.placed[0].Total)
}

func TestPlaceOrderSinkFailure(t *testing.T) {
	sink := newFakeSink()
	sink.saveErr = store.ErrUnavailable
	pub := &fakePublisher{}
	svc := newTestOrderService(sink, pub)

	_, err := svc.PlaceOrder(context.Background(), filledCart(t), testCustomer, pngProof(t))

	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Empty(t, pub.placed, "no event should be published when persistence fails")
}

func TestPlaceOrderPublishFailureStillSucceeds(t *testing.T) {
	sink := newFakeSink()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestOrderService(sink, pub)

	order, err := svc.PlaceOrder(context.Background(), filledCart(t), testCustomer, pngProof(t))

	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
}

func TestUpdateStatusPublishesChange(t *testing.T) {
	sink := newFakeSink()
	pub := &fakePublisher{}
	svc := newTestOrderService(sink, pub)

	_, err := svc.PlaceOrder(context.Background(), filledCart(t), testCustomer, pngProof(t))
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), "order-1", models.OrderStatusDelivering))

	assert.Equal(t, models.OrderStatusDelivering, sink.statuses["order-1"])
	require.Len(t, pub.statusChanged, 1)
	assert.Equal(t, models.OrderStatusPending, pub.statusChanged[0].OldStatus)
	assert.Equal(t, models.OrderStatusDelivering, pub.statusChanged[0].NewStatus)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc := newTestOrderService(newFakeSink(), &fakePublisher{})

	err := svc.UpdateStatus(context.Background(), "missing", models.OrderStatusPreparing)

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTrackOrderPhoneMismatch(t *testing.T) {
	sink := newFakeSink()
	svc := newTestOrderService(sink, &fakePublisher{})

	_, err := svc.PlaceOrder(context.Background(), filledCart(t), testCustomer, pngProof(t))
	require.NoError(t, err)

	_, err = svc.TrackOrder(context.Background(), "order-1", "08099999999")
	assert.ErrorIs(t, err, ErrOrderNotFound, "phone mismatch must read the same as a missing order")

	tracked, err := svc.TrackOrder(context.Background(), "order-1", testCustomer.Phone)
	require.NoError(t, err)
	assert.Equal(t, "order-1", tracked.Order.ID)
	assert.Len(t, tracked.Items, 1)
	assert.NotEmpty(t, tracked.DeliveryEstimate)
}

func TestDeliveryCountdown(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	order := &models.Order{
		Status:           models.OrderStatusDelivering,
		OrderDate:        base,
		EstimatedMinutes: 90,
	}

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"hours remaining", base.Add(5 * time.Minute), "1h 25m remaining"},
		{"minutes remaining", base.Add(70 * time.Minute), "20 minutes remaining"},
		{"under a minute", base.Add(90*time.Minute - 30*time.Second), "Arriving soon"},
		{"past the estimate", base.Add(2 * time.Hour), "Should be delivered soon"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeliveryCountdown(order, tc.now))
		})
	}

	done := &models.Order{Status: models.OrderStatusCompleted, OrderDate: base, EstimatedMinutes: 90}
	assert.Equal(t, "Delivered", DeliveryCountdown(done, base))
}

func TestNewVoucher(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		v := NewVoucher(30*24*time.Hour, now)
		assert.Regexp(t, regexp.MustCompile(`^MANAI-[A-Z0-9]{6}$`), v.Code)
		assert.Contains(t, []int64{50000, 20000, 10000, 5000}, v.Amount)
		assert.Equal(t, now.Add(30*24*time.Hour), v.ExpiresAt)
	}
}

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"manai-service/config"
	"manai-service/internal/cart"
	"manai-service/internal/redisclient"
	"manai-service/internal/service"
	"manai-service/internal/store"
	"manai-service/internal/util"
)

const sessionHeader = "X-Session-ID"

// Handler contains HTTP handlers
type Handler struct {
	cfg     *config.Config
	db      *store.Store
	menu    *service.MenuService
	orders  *service.OrderService
	reports *service.ReportService
	reviews *service.ReviewService
	carts   *redisclient.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(cfg *config.Config, db *store.Store, menu *service.MenuService, orders *service.OrderService, reports *service.ReportService, reviews *service.ReviewService, carts *redisclient.Client) *Handler {
	return &Handler{
		cfg:     cfg,
		db:      db,
		menu:    menu,
		orders:  orders,
		reports: reports,
		reviews: reviews,
		carts:   carts,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/menu", h.listMenu)
		v1.GET("/menu/featured", h.featuredMenu)
		v1.GET("/menu/:id", h.getMenuItem)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PATCH("/cart/items/:lineID", h.updateCartItem)
		v1.DELETE("/cart/items/:lineID", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders/:id/track", h.trackOrder)
	}

	h.setupAdminRoutes(router)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) pricing() cart.Pricing {
	return cart.Pricing{
		FreeDeliveryThreshold: h.cfg.Business.FreeDeliveryThreshold,
		DeliveryFee:           h.cfg.Business.DeliveryFee,
	}
}

// listMenu returns the full menu
func (h *Handler) listMenu(c *gin.Context) {
	items, err := h.menu.ListMenu(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// featuredMenu returns a random sample of dishes for the homepage
func (h *Handler) featuredMenu(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("count", "3"))
	if err != nil || n < 1 {
		n = 3
	}

	items, err := h.menu.Featured(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// getMenuItem returns one dish
func (h *Handler) getMenuItem(c *gin.Context) {
	item, err := h.menu.GetMenuItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) sessionID(c *gin.Context) (string, bool) {
	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing " + sessionHeader + " header",
		})
		return "", false
	}
	return sessionID, true
}

func (h *Handler) loadCart(c *gin.Context) (string, *cart.Cart, bool) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return "", nil, false
	}

	crt, err := h.carts.GetCart(c.Request.Context(), sessionID, h.pricing())
	if err != nil {
		respondError(c, err)
		return "", nil, false
	}
	return sessionID, crt, true
}

func (h *Handler) saveCart(c *gin.Context, sessionID string, crt *cart.Cart) bool {
	if err := h.carts.SaveCart(c.Request.Context(), sessionID, crt, h.cfg.Business.CartTTL); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// getCart returns the session's cart
func (h *Handler) getCart(c *gin.Context) {
	_, crt, ok := h.loadCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, crt)
}

type addCartItemRequest struct {
	MenuItemID string `json:"menu_item_id" binding:"required"`
	Size       string `json:"size"`
	Quantity   int    `json:"quantity"`
}

// addCartItem puts a sized menu item into the session's cart
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sessionID, crt, ok := h.loadCart(c)
	if !ok {
		return
	}

	item, err := h.menu.GetMenuItem(c.Request.Context(), req.MenuItemID)
	if err != nil {
		respondError(c, err)
		return
	}

	sel, err := cart.Select(item)
	if err != nil {
		respondError(c, err)
		return
	}

	size := req.Size
	if size == "" {
		size = sel.DefaultSize()
	}
	priced, err := sel.WithSize(size)
	if err != nil {
		respondError(c, err)
		return
	}

	line := crt.Add(priced, req.Quantity)
	if !h.saveCart(c, sessionID, crt) {
		return
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	c.JSON(http.StatusOK, gin.H{
		"line": line,
		"cart": crt,
	})
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
	Delta    *int `json:"delta"`
}

// updateCartItem sets or adjusts a line's quantity
func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if req.Quantity == nil && req.Delta == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Either quantity or delta is required",
		})
		return
	}

	sessionID, crt, ok := h.loadCart(c)
	if !ok {
		return
	}

	lineID := c.Param("lineID")
	var err error
	if req.Quantity != nil {
		err = crt.SetQuantity(lineID, *req.Quantity)
	} else {
		err = crt.AdjustQuantity(lineID, *req.Delta)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if !h.saveCart(c, sessionID, crt) {
		return
	}

	util.CartMutationsTotal.WithLabelValues("update").Inc()
	c.JSON(http.StatusOK, crt)
}

// removeCartItem deletes one line from the cart
func (h *Handler) removeCartItem(c *gin.Context) {
	sessionID, crt, ok := h.loadCart(c)
	if !ok {
		return
	}

	if err := crt.Remove(c.Param("lineID")); err != nil {
		respondError(c, err)
		return
	}

	if !h.saveCart(c, sessionID, crt) {
		return
	}

	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	c.JSON(http.StatusOK, crt)
}

// clearCart empties the session's cart
func (h *Handler) clearCart(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.carts.DeleteCart(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	c.JSON(http.StatusOK, cart.New(h.pricing()))
}

// placeOrder turns the session cart into an order. The request is multipart:
// customer fields plus the payment proof image.
func (h *Handler) placeOrder(c *gin.Context) {
	sessionID, crt, ok := h.loadCart(c)
	if !ok {
		return
	}

	info := service.CustomerInfo{
		Name:    c.PostForm("customer_name"),
		Phone:   c.PostForm("customer_phone"),
		Address: c.PostForm("customer_address"),
	}

	var proof *service.PaymentProof
	if file, header, err := c.Request.FormFile("payment_proof"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, h.cfg.Business.MaxPaymentProofBytes+1))
		if err != nil {
			respondError(c, err)
			return
		}
		proof = &service.PaymentProof{Filename: header.Filename, Data: data}
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), crt, info, proof)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.carts.DeleteCart(c.Request.Context(), sessionID); err != nil {
		// The order is already durable; a stale cart key just expires.
		util.GetLogger().Warn("Failed to clear cart after order placement")
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id":           order.ID,
		"status":             order.Status,
		"total":              order.Total,
		"estimated_minutes":  order.EstimatedMinutes,
		"voucher_code":       order.VoucherCode,
		"voucher_amount":     order.VoucherAmount,
		"voucher_expires_at": order.VoucherExpiresAt,
	})
}

// trackOrder returns an order's progress to the customer who placed it
func (h *Handler) trackOrder(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Phone number is required",
		})
		return
	}

	tracked, err := h.orders.TrackOrder(c.Request.Context(), c.Param("id"), phone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tracked)
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var proofErr *service.InvalidPaymentProofError

	switch {
	case errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidSelection),
		errors.Is(err, cart.ErrUnknownSize),
		errors.Is(err, service.ErrMissingCustomerInfo),
		errors.Is(err, service.ErrMenuItemWithoutPrices):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &proofErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Invalid payment proof",
			"reason": proofErr.Reason,
		})
	case errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied by the data store"})
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Data store temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

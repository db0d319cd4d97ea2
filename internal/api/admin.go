package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"manai-service/internal/models"
)

// setupAdminRoutes wires the back-office endpoints. Authentication sits in
// front of this service at the gateway.
func (h *Handler) setupAdminRoutes(router *gin.Engine) {
	admin := router.Group("/api/v1/admin")
	{
		admin.GET("/orders", h.adminListOrders)
		admin.GET("/orders/:id", h.adminGetOrder)
		admin.PATCH("/orders/:id/status", h.adminUpdateOrderStatus)

		admin.POST("/menu", h.adminCreateMenuItem)
		admin.PUT("/menu/:id", h.adminUpdateMenuItem)
		admin.DELETE("/menu/:id", h.adminDeleteMenuItem)

		admin.GET("/reviews", h.adminListReviews)
		admin.POST("/reviews/:id/bonus-coin", h.adminGenerateBonusCoin)

		admin.GET("/reports", h.adminReport)
		admin.GET("/stats", h.adminStats)
	}
}

// adminListOrders returns orders, optionally filtered by status
func (h *Handler) adminListOrders(c *gin.Context) {
	status := c.DefaultQuery("status", "all")
	if status != "all" && !models.ValidOrderStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order status filter",
		})
		return
	}

	orders, err := h.db.ListOrders(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// adminGetOrder returns one order with its lines and the payment proof image
func (h *Handler) adminGetOrder(c *gin.Context) {
	orderID := c.Param("id")

	order, items, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":              order,
		"items":              items,
		"payment_proof":      order.PaymentProof,
		"payment_proof_name": order.PaymentProofName,
	})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// adminUpdateOrderStatus moves an order through its delivery statuses
func (h *Handler) adminUpdateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order status",
		})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id": c.Param("id"),
		"status":   req.Status,
	})
}

// adminCreateMenuItem adds a dish to the menu
func (h *Handler) adminCreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.menu.CreateMenuItem(c.Request.Context(), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// adminUpdateMenuItem overwrites a dish
func (h *Handler) adminUpdateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	item.ID = c.Param("id")

	if err := h.menu.UpdateMenuItem(c.Request.Context(), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// adminDeleteMenuItem removes a dish
func (h *Handler) adminDeleteMenuItem(c *gin.Context) {
	if err := h.menu.DeleteMenuItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// adminListReviews returns all reviews, newest first
func (h *Handler) adminListReviews(c *gin.Context) {
	reviews, err := h.reviews.ListReviews(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// adminGenerateBonusCoin issues a bonus coin for a review
func (h *Handler) adminGenerateBonusCoin(c *gin.Context) {
	coin, err := h.reviews.GenerateBonusCoin(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"review_id":  c.Param("id"),
		"bonus_coin": coin,
	})
}

// adminReport builds a sales report for a named quick range or an explicit
// start/end date pair.
func (h *Handler) adminReport(c *gin.Context) {
	ctx := c.Request.Context()

	if rangeName := c.Query("range"); rangeName != "" {
		report, err := h.reports.Quick(ctx, rangeName, time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "start must be a YYYY-MM-DD date",
		})
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "end must be a YYYY-MM-DD date",
		})
		return
	}

	report, err := h.reports.Range(ctx, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// adminStats returns order counts per status for the dashboard tiles
func (h *Handler) adminStats(c *gin.Context) {
	counts, err := h.reports.StatusCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status_counts": counts})
}

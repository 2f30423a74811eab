package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers (Customer) ---
//

// GetMyOrders lists the caller's orders, newest first.
// Optional query: status, days, search.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	filter, ok := orderFilter(c)
	if !ok {
		return
	}
	filter.UserID = identity(c).UserID

	orders, err := h.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrderDetails returns one of the caller's orders with its lines.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.Orders.OrderForUser(c.Request.Context(), orderID, identity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

// GetOrderInvoice returns the invoice, creating it on first view.
func (h *Handlers) GetOrderInvoice(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	o, err := h.Orders.OrderForUser(ctx, orderID, identity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	inv, err := h.Invoices.EnsureInvoice(ctx, o)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"invoice":  inv,
		"order":    o,
		"store":    h.Settings.Name,
		"currency": h.Settings.Currency,
	})
}

// GetOrderPayments returns the payment history of one of the caller's orders.
func (h *Handlers) GetOrderPayments(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Orders.OrderForUser(ctx, orderID, identity(c).UserID); err != nil {
		h.respondError(c, err)
		return
	}
	payments, err := h.Orders.PaymentsForOrder(ctx, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func orderFilter(c *gin.Context) (models.OrderFilter, bool) {
	f := models.OrderFilter{Search: c.Query("search")}
	if s := c.Query("status"); s != "" {
		f.Status = models.OrderStatus(s)
		if !f.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return f, false
		}
	}
	if d := c.Query("days"); d != "" {
		days, err := strconv.Atoi(d)
		if err != nil || days < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days"})
			return f, false
		}
		f.Days = days
	}
	return f, true
}

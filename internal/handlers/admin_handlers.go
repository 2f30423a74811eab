package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/tvshop-golang/internal/events"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/01moynul/tvshop-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

//
// --- Admin Handlers ---
//

// GetAllOrders lists every customer's orders.
// Optional query: status, days, search, userId.
func (h *Handlers) GetAllOrders(c *gin.Context) {
	filter, ok := orderFilter(c)
	if !ok {
		return
	}
	filter.UserID = c.Query("userId")

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

type UpdateOrderStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order along Processing -> Shipped -> Delivered
// (or cancels it). Other transitions answer 409.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil || !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Orders.UpdateOrderStatus(ctx, orderID, input.Status); err != nil {
		h.respondError(c, err)
		return
	}
	o, err := h.Orders.Order(ctx, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.Events != nil {
		if err := h.Events.Publish(ctx, events.NewOrderEvent(events.OrderStatusChanged, o)); err != nil {
			h.Logger.Warn().Err(err).Int64("order_id", orderID).Msg("could not publish status change")
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": o})
}

type CreateProductInput struct {
	Name          string          `json:"name" binding:"required,max=200"`
	Brand         string          `json:"brand" binding:"max=100"`
	Category      string          `json:"category" binding:"max=100"`
	Description   string          `json:"description"`
	MainImageURL  string          `json:"mainImageUrl" binding:"omitempty,max=500"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity" binding:"gte=0"`
}

func (h *Handlers) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if !input.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than zero"})
		return
	}

	p := &models.Product{
		Name:          input.Name,
		Slug:          slug.Make(input.Name),
		Brand:         input.Brand,
		Category:      input.Category,
		Description:   input.Description,
		MainImageURL:  input.MainImageURL,
		Price:         input.Price.Round(2),
		StockQuantity: input.StockQuantity,
	}
	err := h.Catalog.CreateProduct(c.Request.Context(), p)
	if errors.Is(err, store.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "A product with this name already exists"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

type UpdatePriceInput struct {
	Price decimal.Decimal `json:"price"`
}

// UpdateProductPrice changes the live price. Items already in carts and
// orders keep the price they were added at.
func (h *Handlers) UpdateProductPrice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input UpdatePriceInput
	if err := c.ShouldBindJSON(&input); err != nil || !input.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be greater than zero"})
		return
	}
	if err := h.Catalog.UpdateProductPrice(c.Request.Context(), id, input.Price.Round(2)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Price updated"})
}

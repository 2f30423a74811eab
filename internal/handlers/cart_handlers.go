package handlers

import (
	"net/http"

	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//
// --- Cart Handlers (Customer) ---
//

type AddToCartInput struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
}

type UpdateCartItemInput struct {
	// Zero removes the line.
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

type cartView struct {
	Items    []models.CartLine `json:"items"`
	Count    int               `json:"count"`
	Total    string            `json:"total"`
	Currency string            `json:"currency"`
}

func (h *Handlers) GetCart(c *gin.Context) {
	userID := identity(c).UserID
	lines, err := h.Cart.Lines(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newCartView(lines))
}

func (h *Handlers) GetCartCount(c *gin.Context) {
	count, err := h.Cart.Count(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := identity(c).UserID
	if err := h.Cart.Add(ctx, userID, input.ProductID); err != nil {
		h.respondError(c, err)
		return
	}
	count, err := h.Cart.Count(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to cart", "count": count})
}

func (h *Handlers) UpdateCartItem(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := identity(c).UserID
	if err := h.Cart.SetQuantity(ctx, userID, productID, *input.Quantity); err != nil {
		h.respondError(c, err)
		return
	}
	lines, err := h.Cart.Lines(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newCartView(lines))
}

func (h *Handlers) DeleteCartItem(c *gin.Context) {
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}
	if err := h.Cart.Remove(c.Request.Context(), identity(c).UserID, productID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *Handlers) ClearCart(c *gin.Context) {
	if err := h.Cart.Clear(c.Request.Context(), identity(c).UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// BuyNow replaces the cart with a single unit of the product, ready for checkout.
func (h *Handlers) BuyNow(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := identity(c).UserID
	if err := h.Cart.Replace(ctx, userID, input.ProductID); err != nil {
		h.respondError(c, err)
		return
	}
	lines, err := h.Cart.Lines(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newCartView(lines))
}

func (h *Handlers) newCartView(lines []models.CartLine) cartView {
	total := decimal.Zero
	count := 0
	for _, l := range lines {
		total = total.Add(l.Subtotal())
		count += l.Quantity
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	return cartView{Items: lines, Count: count, Total: total.StringFixed(2), Currency: h.Settings.Currency}
}

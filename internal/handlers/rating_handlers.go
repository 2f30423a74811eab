package handlers

import (
	"net/http"
	"strings"

	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Rating Handlers ---
//

type RateProductInput struct {
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment" binding:"omitempty,max=500"`
}

// GetProductRatings lists a product's ratings, newest first, with the summary.
func (h *Handlers) GetProductRatings(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Catalog.Product(ctx, productID); err != nil {
		h.respondError(c, err)
		return
	}
	ratings, err := h.Ratings.ProductRatings(ctx, productID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary, err := h.Ratings.RatingSummary(ctx, productID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	c.JSON(http.StatusOK, gin.H{
		"ratings":       ratings,
		"averageRating": summary.Average,
		"ratingCount":   summary.Count,
	})
}

// RateProduct adds the caller's rating, or replaces the one they gave before.
func (h *Handlers) RateProduct(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input RateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5."})
		return
	}
	if input.Comment != nil {
		if trimmed := strings.TrimSpace(*input.Comment); trimmed == "" {
			input.Comment = nil
		} else {
			input.Comment = &trimmed
		}
	}

	r := &models.Rating{
		ProductID: productID,
		UserID:    identity(c).UserID,
		Value:     input.Rating,
		Comment:   input.Comment,
	}
	if err := h.Ratings.UpsertRating(c.Request.Context(), r); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Thanks for your rating", "rating": r})
}

// DeleteRating removes a rating. Only its author or an admin may do so.
func (h *Handlers) DeleteRating(c *gin.Context) {
	ratingID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	r, err := h.Ratings.Rating(ctx, ratingID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	caller := identity(c)
	if r.UserID != caller.UserID && !caller.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to delete this rating"})
		return
	}
	if err := h.Ratings.DeleteRating(ctx, ratingID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating deleted", "productId": r.ProductID})
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListProducts is the public catalog.
// Query: search (name), brand, category, limit, offset.
func (h *Handlers) ListProducts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	products, err := h.Catalog.ListProducts(ctx, models.ProductFilter{
		Search:   c.Query("search"),
		Brand:    c.Query("brand"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	facets, err := h.Catalog.CatalogFacets(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}

	body := gin.H{
		"products":   products,
		"limit":      limit,
		"offset":     offset,
		"brands":     facets.Brands,
		"categories": facets.Categories,
	}
	if len(products) == 0 {
		body["message"] = "No products found."
	}
	c.JSON(http.StatusOK, body)
}

// GetProduct returns the product with its rating summary.
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := h.Catalog.Product(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	p.MainImageURL = p.SafeMainImageURL()

	summary, err := h.Ratings.RatingSummary(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":       p,
		"averageRating": summary.Average,
		"ratingCount":   summary.Count,
	})
}

// GetStoreSettings exposes the public shop settings to the frontend.
func (h *Handlers) GetStoreSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":                    h.Settings.Name,
		"currency":                h.Settings.Currency,
		"orderEmailNotifications": h.Settings.OrderEmailNotifications,
	})
}

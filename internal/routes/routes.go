package routes

import (
	"net/http"

	"github.com/01moynul/tvshop-golang/internal/auth"
	"github.com/01moynul/tvshop-golang/internal/handlers"
	"github.com/01moynul/tvshop-golang/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Options struct {
	Tokens        *auth.Manager
	AllowedOrigin string
	// CheckoutLimiter throttles the endpoints that charge a payment.
	CheckoutLimiter *middleware.RateLimiter
	Logger          zerolog.Logger
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Logger))

	// CORS must be the very first thing that can answer.
	router.Use(middleware.CORS(opts.AllowedOrigin))

	checkoutGuard := func(c *gin.Context) { c.Next() }
	if opts.CheckoutLimiter != nil {
		checkoutGuard = opts.CheckoutLimiter.Middleware()
	}

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Catalog Routes ---
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
		v1.GET("/products/:id/ratings", h.GetProductRatings)
		v1.GET("/store/settings", h.GetStoreSettings)

		// --- Protected Routes (Login Required) ---
		authed := v1.Group("/")
		authed.Use(middleware.Auth(opts.Tokens))
		{
			// Cart
			authed.GET("/cart", h.GetCart)
			authed.GET("/cart/count", h.GetCartCount)
			authed.POST("/cart/items", h.AddToCart)
			authed.PUT("/cart/items/:productId", h.UpdateCartItem)
			authed.DELETE("/cart/items/:productId", h.DeleteCartItem)
			authed.DELETE("/cart", h.ClearCart)
			authed.POST("/cart/buy-now", h.BuyNow)

			// Checkout
			authed.POST("/checkout", checkoutGuard, h.Checkout)
			authed.POST("/checkout/place", checkoutGuard, h.PlaceOrder)
			authed.POST("/orders/:id/pay", checkoutGuard, h.PayOrder)

			// Ratings
			authed.POST("/products/:id/ratings", h.RateProduct)
			authed.DELETE("/ratings/:id", h.DeleteRating)

			// Orders
			authed.GET("/orders", h.GetMyOrders)
			authed.GET("/orders/:id", h.GetOrderDetails)
			authed.GET("/orders/:id/invoice", h.GetOrderInvoice)
			authed.GET("/orders/:id/payments", h.GetOrderPayments)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin")
		admin.Use(middleware.Auth(opts.Tokens))
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/orders", h.GetAllOrders)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
			admin.POST("/products", h.CreateProduct)
			admin.PATCH("/products/:id/price", h.UpdateProductPrice)
		}
	}

	return router
}

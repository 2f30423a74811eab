package handlers

import (
	"net/http"

	"github.com/01moynul/tvshop-golang/internal/checkout"
	"github.com/01moynul/tvshop-golang/internal/order"
	"github.com/gin-gonic/gin"
)

//
// --- Checkout Handlers (Customer) ---
//

// Checkout places and pays for an order from the whole cart.
func (h *Handlers) Checkout(c *gin.Context) {
	var input order.ContactInfo
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	res, err := h.Orchestrator.Checkout(c.Request.Context(), identity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondResult(c, res)
}

// PlaceOrder creates a Pending order; the client then calls PayOrder.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var input order.ContactInfo
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	res, err := h.Orchestrator.PlaceOrder(c.Request.Context(), identity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondResult(c, res)
}

// PayOrder completes payment for a Pending order.
func (h *Handlers) PayOrder(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Orchestrator.CompletePayment(c.Request.Context(), identity(c).UserID, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondResult(c, res)
}

func (h *Handlers) respondResult(c *gin.Context, res *checkout.Result) {
	switch res.Outcome {
	case checkout.OutcomeOrderPlaced:
		body := gin.H{
			"outcome": res.Outcome,
			"message": "Order placed successfully",
			"orderId": res.OrderID,
			"order":   res.Order,
		}
		if res.Invoice != nil {
			body["invoice"] = res.Invoice
		}
		c.JSON(http.StatusCreated, body)
	case checkout.OutcomeAwaitingPayment:
		c.JSON(http.StatusCreated, gin.H{
			"outcome":       res.Outcome,
			"message":       "Order created, awaiting payment",
			"orderId":       res.OrderID,
			"order":         res.Order,
			"transactionId": res.Payment.TransactionID,
		})
	case checkout.OutcomePaymentFailed:
		c.JSON(http.StatusPaymentRequired, gin.H{
			"outcome": res.Outcome,
			"message": "Payment failed. Your cart has been kept so you can try again.",
			"orderId": res.OrderID,
		})
	case checkout.OutcomeEmptyCart:
		c.JSON(http.StatusBadRequest, gin.H{
			"outcome": res.Outcome,
			"error":   "Your cart is empty",
		})
	case checkout.OutcomeValidationError:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"outcome": res.Outcome,
			"error":   "Please correct the highlighted fields",
			"fields":  res.Fields,
		})
	default:
		h.Logger.Error().Str("outcome", string(res.Outcome)).Msg("unknown checkout outcome")
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
	}
}

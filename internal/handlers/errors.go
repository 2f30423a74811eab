package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/auth"
	"github.com/01moynul/tvshop-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

const genericError = "Something went wrong, please try again"

// respondError maps an error category to a status. Store failures are
// logged in full and the caller only sees a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperr.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": "Payment is taking longer than expected. Check your orders before trying again.",
		})
	case errors.Is(err, apperr.ErrPersistence):
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("persistence failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": genericError, "retryable": true})
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
	}
}

// identity returns the authenticated caller; routes guarantee Auth ran.
func identity(c *gin.Context) auth.Identity {
	id, _ := middleware.Identity(c)
	return id
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

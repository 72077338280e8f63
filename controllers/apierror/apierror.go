// Package apierror turns domain errors into JSON responses.
package apierror

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
)

// Status maps a domain error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidIdentity),
		errors.Is(err, models.ErrInvalidCheckout),
		errors.Is(err, models.ErrMalformedCallback),
		errors.Is(err, models.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrProductUnavailable),
		errors.Is(err, models.ErrCartItemNotFound),
		errors.Is(err, models.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrIllegalTransition),
		errors.Is(err, models.ErrAlreadyPaid),
		errors.Is(err, models.ErrImmutableOrder),
		errors.Is(err, models.ErrImmutableOrderItem):
		return http.StatusConflict
	case errors.Is(err, models.ErrPaymentVerificationFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrVerificationUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as {"error": ...}. Unmapped errors are logged and hidden.
func Respond(c *gin.Context, log *zap.Logger, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "Something went wrong, please try again"})
		return
	}

	body := gin.H{"error": err.Error()}

	var stockErr *models.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["product_id"] = stockErr.ProductID
		body["available"] = stockErr.Available
	}
	if errors.Is(err, models.ErrVerificationUnreachable) {
		body["retryable"] = true
		log.Warn("payment verification unreachable", zap.Error(err))
	}
	c.JSON(status, body)
}

package gatewayControllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// callbackParams reads the gateway redirect query. Both referenceId and
// reference_id spellings are accepted. A signed data parameter, when present,
// must verify and agree with the plain parameters.
func (a *Adapter) callbackParams(c *gin.Context) (transactionUUID, referenceID string, err error) {
	transactionUUID = c.Query("transaction_uuid")
	referenceID = c.Query("referenceId")
	if referenceID == "" {
		referenceID = c.Query("reference_id")
	}

	raw := c.Query("data")
	if raw == "" {
		return transactionUUID, referenceID, nil
	}
	data, err := DecodeCallbackData(a.cfg.SecretKey, raw)
	if err != nil {
		return "", "", err
	}
	if data.ProductCode != a.cfg.ProductCode {
		return "", "", fmt.Errorf("%w: product code %q", models.ErrMalformedCallback, data.ProductCode)
	}
	if transactionUUID != "" && transactionUUID != data.TransactionUUID {
		return "", "", fmt.Errorf("%w: transaction_uuid does not match signed data", models.ErrMalformedCallback)
	}
	transactionUUID = data.TransactionUUID
	if referenceID == "" {
		referenceID = data.TransactionCode
	}
	return transactionUUID, referenceID, nil
}

// GET /payment/gateway/success
func PaymentSuccessHandler(a *Adapter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		transactionUUID, referenceID, err := a.callbackParams(c)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}

		order, err := a.VerifySuccess(c.Request.Context(), c.GetString("user_id"), transactionUUID, referenceID)
		if errors.Is(err, models.ErrPaymentVerificationFailed) && order != nil {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error": "Payment verification failed",
				"order": order,
			})
			return
		}
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Payment successful! Order " + order.OrderNumber + " is processing.",
			"order":   order,
		})
	}
}

// GET /payment/gateway/failure
func PaymentFailureHandler(a *Adapter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		transactionUUID, _, err := a.callbackParams(c)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}

		order, err := a.HandleFailure(c.Request.Context(), c.GetString("user_id"), transactionUUID)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment was cancelled or failed. You can try again.",
			"order":   order,
		})
	}
}

// POST /user/orders/:orderNumber/pay
func InitiatePaymentHandler(a *Adapter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := a.Initiate(c.Request.Context(), c.GetString("user_id"), c.Param("orderNumber"))
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, payload)
	}
}

// POST /user/orders/:orderNumber/cod
func ConfirmCODHandler(a *Adapter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := a.ConfirmCOD(c.Request.Context(), c.GetString("user_id"), c.Param("orderNumber"))
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Order " + order.OrderNumber + " confirmed for cash on delivery",
			"order":   order,
		})
	}
}

// GET /user/orders/:orderNumber/payment lists the ways an order can still be paid.
func PaymentMethodsHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orderControllers.FindOrder(db.WithContext(c.Request.Context()), c.Param("orderNumber"), c.GetString("user_id"))
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}

		if order.PaymentStatus == models.PaymentStatusCompleted {
			c.JSON(http.StatusOK, gin.H{
				"message":      "This order has already been paid.",
				"already_paid": true,
				"order":        order,
			})
			return
		}

		methods := []models.PaymentMethod{}
		if orderControllers.CanCancel(order.Status) {
			methods = append(methods, models.PaymentMethodCOD)
		}
		if order.Status == models.OrderStatusPending {
			methods = append(methods, models.PaymentMethodGateway)
		}
		c.JSON(http.StatusOK, gin.H{
			"already_paid": false,
			"methods":      methods,
			"order":        order,
		})
	}
}

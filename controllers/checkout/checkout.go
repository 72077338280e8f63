// Package checkoutControllers places an order from the cart and starts its
// payment in one request.
package checkoutControllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	gatewayControllers "github.com/junaidrashid-git/storefront-api/controllers/gateway"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
)

// Result is what the buyer gets back from a checkout. Payment is only set
// for gateway orders and holds the form to post to the gateway.
type Result struct {
	Order   *models.Order                         `json:"order"`
	Payment *gatewayControllers.InitiationPayload `json:"payment,omitempty"`
}

type Service struct {
	orders  *orderControllers.Service
	gateway *gatewayControllers.Adapter
	log     *zap.Logger
}

func NewService(orders *orderControllers.Service, gateway *gatewayControllers.Adapter, log *zap.Logger) *Service {
	return &Service{orders: orders, gateway: gateway, log: log}
}

// Checkout creates the order and hands it to the chosen payment method.
// If the payment step fails the order stays pending and can be paid again
// from the payment page.
func (s *Service) Checkout(ctx context.Context, userID string, req orderControllers.CheckoutRequest) (*Result, error) {
	order, err := s.orders.CreateOrder(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	switch order.PaymentMethod {
	case models.PaymentMethodCOD:
		confirmed, err := s.gateway.ConfirmCOD(ctx, userID, order.OrderNumber)
		if err != nil {
			return nil, fmt.Errorf("confirm cash on delivery for %s: %w", order.OrderNumber, err)
		}
		return &Result{Order: confirmed}, nil
	default:
		payload, err := s.gateway.Initiate(ctx, userID, order.OrderNumber)
		if err != nil {
			return nil, fmt.Errorf("initiate payment for %s: %w", order.OrderNumber, err)
		}
		return &Result{Order: order, Payment: payload}, nil
	}
}

// POST /user/checkout
func CheckoutHandler(svc *Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orderControllers.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := svc.Checkout(c.Request.Context(), c.GetString("user_id"), req)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}

		message := "Order " + result.Order.OrderNumber + " placed successfully"
		if result.Payment != nil {
			message = "Order " + result.Order.OrderNumber + " created, continue to payment"
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": message,
			"order":   result.Order,
			"payment": result.Payment,
		})
	}
}

package routes

import (
	"github.com/gin-gonic/gin"
	gatewayControllers "github.com/junaidrashid-git/storefront-api/controllers/gateway"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupOrderRoutes registers the buyer's order and payment endpoints.
func SetupOrderRoutes(r *gin.Engine, d *Deps) {
	orders := r.Group("/user/orders")
	orders.Use(middleware.ValidateToken(d.JWTSecret), middleware.RequireUser)
	{
		orders.GET("", orderControllers.GetUserOrdersHandler(d.DB, d.Log))
		orders.GET("/:orderNumber", orderControllers.GetUserOrderHandler(d.DB, d.Log))
		orders.POST("/:orderNumber/cancel", orderControllers.CancelOrderHandler(d.Orders, d.Log))

		// Payment method page and the two ways to pay
		orders.GET("/:orderNumber/payment", gatewayControllers.PaymentMethodsHandler(d.DB, d.Log))
		orders.POST("/:orderNumber/cod", gatewayControllers.ConfirmCODHandler(d.Gateway, d.Log))
		orders.POST("/:orderNumber/pay", gatewayControllers.InitiatePaymentHandler(d.Gateway, d.Log))
	}

	// Gateway redirects land here with the buyer's session token.
	payment := r.Group("/payment/gateway")
	payment.Use(middleware.ValidateToken(d.JWTSecret), middleware.RequireUser)
	{
		payment.GET("/success", gatewayControllers.PaymentSuccessHandler(d.Gateway, d.Log))
		payment.GET("/failure", gatewayControllers.PaymentFailureHandler(d.Gateway, d.Log))
	}
}

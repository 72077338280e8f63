package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	checkoutControllers "github.com/junaidrashid-git/storefront-api/controllers/checkout"
	gatewayControllers "github.com/junaidrashid-git/storefront-api/controllers/gateway"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/events"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps carries the shared services every route group draws from.
type Deps struct {
	DB          *gorm.DB
	Log         *zap.Logger
	JWTSecret   string
	AdminAPIKey string
	Hub         *events.Hub
	Carts       *cartControllers.Store
	Orders      *orderControllers.Service
	Gateway     *gatewayControllers.Adapter
	Checkout    *checkoutControllers.Service
}

// SetupRoutes is the single entry point that wires up every route group.
func SetupRoutes(r *gin.Engine, d *Deps) {
	// Public auth and catalog routes (no middleware)
	SetupAuthRoutes(r, d)
	SetupCatalogRoutes(r, d)

	// User routes (JWT-protected, guests limited to the cart)
	SetupUserRoutes(r, d)
	SetupOrderRoutes(r, d)

	// Staff routes (API key or staff token)
	SetupAdminRoutes(r, d)
}

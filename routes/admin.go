package routes

import (
	"github.com/gin-gonic/gin"
	dashboardControllers "github.com/junaidrashid-git/storefront-api/controllers/dashboard"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupAdminRoutes registers all "/admin/*" endpoints. Requires the API key
// or a staff token.
func SetupAdminRoutes(r *gin.Engine, d *Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.RequireStaff(d.JWTSecret, d.AdminAPIKey))
	{
		// ─────────── Dashboard & Users ───────────
		adminGroup.GET("/stats", dashboardControllers.StatsHandler(d.DB, d.Log))
		adminGroup.GET("/users", dashboardControllers.GetAllUsers(d.DB, d.Log))

		// ─────────── Product Management ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("", productcontroller.GetAllProducts(d.DB, d.Log))
			productAdmin.POST("", productcontroller.CreateProduct(d.DB, d.Log))
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(d.DB, d.Log))
			productAdmin.POST("/import-excel", productcontroller.ImportStockFromExcel(d.DB, d.Log))
			productAdmin.GET("/:id", productcontroller.GetProductForStaff(d.DB, d.Log))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(d.DB, d.Log))
			productAdmin.DELETE("/:id", productcontroller.ArchiveProduct(d.DB, d.Log))
		}

		categoryAdmin := adminGroup.Group("/categories")
		{
			categoryAdmin.GET("", productcontroller.GetAllCategories(d.DB, d.Log))
			categoryAdmin.POST("", productcontroller.CreateCategory(d.DB, d.Log))
			categoryAdmin.PUT("/:id", productcontroller.UpdateCategory(d.DB, d.Log))
			categoryAdmin.DELETE("/:id", productcontroller.ArchiveCategory(d.DB, d.Log))
		}
		brandAdmin := adminGroup.Group("/brands")
		{
			brandAdmin.GET("", productcontroller.GetAllBrands(d.DB, d.Log))
			brandAdmin.POST("", productcontroller.CreateBrand(d.DB, d.Log))
			brandAdmin.PUT("/:id", productcontroller.UpdateBrand(d.DB, d.Log))
			brandAdmin.DELETE("/:id", productcontroller.ArchiveBrand(d.DB, d.Log))
		}

		// ─────────── Order Management ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", dashboardControllers.ListOrdersHandler(d.DB, d.Log))
			orderAdmin.GET("/export", dashboardControllers.ExportOrdersHandler(d.DB, d.Log))
			// websocket endpoint for real-time order updates
			orderAdmin.GET("/ws", orderControllers.OrderWebSocketHandler(d.Hub, d.Log))
			orderAdmin.GET("/:orderNumber", orderControllers.GetOrderByNumberHandler(d.DB, d.Log))
			orderAdmin.PUT("/:orderNumber/status", orderControllers.UpdateOrderStatusHandler(d.Orders, d.Log))
		}
	}
}

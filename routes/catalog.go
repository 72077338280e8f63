package routes

import (
	"github.com/gin-gonic/gin"
	productcontroller "github.com/junaidrashid-git/storefront-api/controllers/product"
)

// SetupCatalogRoutes registers the public "/products", "/categories" and
// "/brands" endpoints.
func SetupCatalogRoutes(r *gin.Engine, d *Deps) {
	products := r.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(d.DB, d.Log))
		products.GET("/:id", productcontroller.GetProductByID(d.DB, d.Log))
	}

	r.GET("/categories", productcontroller.GetCategories(d.DB, d.Log))
	r.GET("/categories/:slug", productcontroller.GetCategoryProducts(d.DB, d.Log))
	r.GET("/brands", productcontroller.GetBrands(d.DB, d.Log))
	r.GET("/brands/:slug", productcontroller.GetBrandProducts(d.DB, d.Log))
}

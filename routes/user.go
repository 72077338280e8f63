package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	checkoutControllers "github.com/junaidrashid-git/storefront-api/controllers/checkout"
	userControllers "github.com/junaidrashid-git/storefront-api/controllers/user"
	"github.com/junaidrashid-git/storefront-api/middleware"
)

// SetupUserRoutes registers the "/user/*" profile, cart and checkout
// endpoints. Requires JWT middleware; guests may only use the cart.
func SetupUserRoutes(r *gin.Engine, d *Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(d.JWTSecret))
	{
		// ──────────────── Shopping Cart ────────────────
		cart := cartControllers.NewHandlers(d.Carts, d.JWTSecret, d.Log)
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cart.GetCart)                       // GET /user/cart
			cartGroup.POST("", cart.AddCartItem)                  // POST /user/cart
			cartGroup.PUT("/:product_id", cart.UpdateCartItem)    // PUT /user/cart/:product_id
			cartGroup.DELETE("/:product_id", cart.DeleteCartItem) // DELETE /user/cart/:product_id
			cartGroup.DELETE("", cart.ClearCart)                  // DELETE /user/cart
			cartGroup.POST("/merge", middleware.RequireUser, cart.MergeGuestCart)
		}

		signedIn := userGroup.Group("")
		signedIn.Use(middleware.RequireUser)
		{
			// ──────────────── User Profile ────────────────
			signedIn.GET("", userControllers.GetUser(d.DB, d.Log))    // GET /user
			signedIn.PUT("", userControllers.UpdateUser(d.DB, d.Log)) // PUT /user

			// ──────────────── Checkout ────────────────
			signedIn.POST("/checkout", checkoutControllers.CheckoutHandler(d.Checkout, d.Log))
		}
	}
}

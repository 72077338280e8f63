package cartControllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"go.uber.org/zap"
)

// CartItemInput adds one unit when quantity is omitted.
type CartItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  *int `json:"quantity"`
}

type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

type MergeCartInput struct {
	GuestToken string `json:"guest_token" binding:"required"`
}

// IdentityFromContext picks the cart owner from the token claims set by
// middleware.ValidateToken: guests shop on a session cart, everyone else on
// a user cart.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		return Identity{}, false
	}
	if c.GetString("role") == auth.RoleGuest {
		return SessionIdentity(userID), true
	}
	return UserIdentity(userID), true
}

// Handlers serves the cart endpoints for both guests and users.
type Handlers struct {
	store     *Store
	jwtSecret string
	log       *zap.Logger
}

func NewHandlers(store *Store, jwtSecret string, log *zap.Logger) *Handlers {
	return &Handlers{store: store, jwtSecret: jwtSecret, log: log}
}

// GET /user/cart
func (h *Handlers) GetCart(c *gin.Context) {
	id, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	snap, err := h.store.Snapshot(c.Request.Context(), id)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// POST /user/cart
func (h *Handlers) AddCartItem(c *gin.Context) {
	id, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input CartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	qty := 1
	if input.Quantity != nil {
		qty = *input.Quantity
	}

	item, err := h.store.AddItem(c.Request.Context(), id, input.ProductID, qty)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	snap, err := h.store.Snapshot(c.Request.Context(), id)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Added " + item.Product.Name + " to your cart",
		"item":    item,
		"cart":    snap,
	})
}

// PUT /user/cart/:product_id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	id, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var input UpdateQuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if err := h.store.UpdateItem(c.Request.Context(), id, uint(productID), input.Quantity); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	snap, err := h.store.Snapshot(c.Request.Context(), id)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DELETE /user/cart/:product_id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	id, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	if err := h.store.RemoveItem(c.Request.Context(), id, uint(productID)); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
}

// DELETE /user/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	id, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.store.Clear(c.Request.Context(), id); err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// POST /user/cart/merge folds a guest cart into the signed-in user's cart.
func (h *Handlers) MergeGuestCart(c *gin.Context) {
	var input MergeCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	claims, err := auth.ParseToken(h.jwtSecret, input.GuestToken)
	if err != nil || !claims.IsGuest() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid guest token"})
		return
	}

	userID := c.GetString("user_id")
	merged, err := h.store.Merge(c.Request.Context(), claims.UserID, userID)
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}

	snap, err := h.store.Snapshot(c.Request.Context(), UserIdentity(userID))
	if err != nil {
		apierror.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": merged, "cart": snap})
}

package productcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func findProduct(db *gorm.DB, c *gin.Context, activeOnly bool) (*models.Product, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return nil, false
	}

	q := db.WithContext(c.Request.Context()).Preload("Category").Preload("Brand")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var product models.Product
	if err := q.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve product"})
		}
		return nil, false
	}
	return &product, true
}

// GetProductByID returns an active product with its stock flags.
// URL param: /products/:id
func GetProductByID(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := findProduct(db, c, true)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"product":      product,
			"in_stock":     product.HasStock(1),
			"low_stock":    product.IsLowStock(),
			"out_of_stock": product.IsOutOfStock(),
		})
	}
}

// GET /admin/products/:id
func GetProductForStaff(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := findProduct(db, c, false)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

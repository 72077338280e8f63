package productcontroller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateProduct edits an existing product by ID. Prices already copied into
// orders are not affected.
// PUT /admin/products/:id
func UpdateProduct(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := findProduct(db, c, false)
		if !ok {
			return
		}

		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := input.applyTo(product); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		db := db.WithContext(c.Request.Context())
		if err := checkReferences(db, product); err != nil {
			respondSaveError(c, log, err)
			return
		}
		if err := db.Omit(clause.Associations).Save(product).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("update product %d: %w", product.ID, err))
			return
		}
		if err := db.Preload("Category").Preload("Brand").First(product, product.ID).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("reload product %d: %w", product.ID, err))
			return
		}

		log.Info("product updated", zap.Uint("product_id", product.ID))
		c.JSON(http.StatusOK, product)
	}
}

package productcontroller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArchiveProduct hides a product from the catalog. Rows are kept so carts
// and order history that reference it stay intact.
// DELETE /admin/products/:id
func ArchiveProduct(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, ok := findProduct(db, c, false)
		if !ok {
			return
		}

		if err := db.WithContext(c.Request.Context()).Model(&models.Product{}).
			Where("id = ?", product.ID).
			Update("is_active", false).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("archive product %d: %w", product.ID, err))
			return
		}

		log.Info("product archived", zap.Uint("product_id", product.ID))
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Product %q has been archived", product.Name)})
	}
}

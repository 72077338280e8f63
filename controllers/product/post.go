package productcontroller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultLowStockThreshold = 10

// ProductInput is the staff payload for creating and editing products.
// Nil fields are left unchanged on update. A category_id or brand_id of 0
// detaches the product.
type ProductInput struct {
	Name              *string          `json:"name"`
	SKU               *string          `json:"sku"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	ComparePrice      *decimal.Decimal `json:"compare_price"`
	Quantity          *int             `json:"quantity"`
	TrackQuantity     *bool            `json:"track_quantity"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
	IsActive          *bool            `json:"is_active"`
	IsFeatured        *bool            `json:"is_featured"`
	CategoryID        *uint            `json:"category_id"`
	BrandID           *uint            `json:"brand_id"`
}

// applyTo copies the set fields onto p and checks the result.
func (in ProductInput) applyTo(p *models.Product) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.SKU != nil {
		p.SKU = strings.TrimSpace(*in.SKU)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.ComparePrice != nil {
		p.ComparePrice = decimal.NewNullDecimal(in.ComparePrice.Round(2))
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.TrackQuantity != nil {
		p.TrackQuantity = *in.TrackQuantity
	}
	if in.LowStockThreshold != nil {
		p.LowStockThreshold = *in.LowStockThreshold
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.CategoryID != nil {
		p.CategoryID = optionalID(*in.CategoryID)
		p.Category = nil
	}
	if in.BrandID != nil {
		p.BrandID = optionalID(*in.BrandID)
		p.Brand = nil
	}

	switch {
	case p.Name == "" || p.SKU == "":
		return fmt.Errorf("name and sku are required")
	case p.Price.IsNegative():
		return fmt.Errorf("price must not be negative")
	case p.Quantity < 0 || p.LowStockThreshold < 0:
		return fmt.Errorf("quantity and low_stock_threshold must not be negative")
	}
	return nil
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

// checkReferences makes sure the category and brand of p exist.
func checkReferences(db *gorm.DB, p *models.Product) error {
	refs := []struct {
		id    *uint
		model interface{}
		noun  string
	}{
		{p.CategoryID, &models.Category{}, "category"},
		{p.BrandID, &models.Brand{}, "brand"},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		var count int64
		if err := db.Model(ref.model).Where("id = ?", *ref.id).Count(&count).Error; err != nil {
			return fmt.Errorf("check %s: %w", ref.noun, err)
		}
		if count == 0 {
			return &referenceError{noun: ref.noun, id: *ref.id}
		}
	}
	return nil
}

type referenceError struct {
	noun string
	id   uint
}

func (e *referenceError) Error() string { return fmt.Sprintf("unknown %s %d", e.noun, e.id) }

// respondSaveError answers 400 for a dangling category or brand and maps
// anything else through apierror.
func respondSaveError(c *gin.Context, log *zap.Logger, err error) {
	var refErr *referenceError
	if errors.As(err, &refErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": refErr.Error()})
		return
	}
	apierror.Respond(c, log, err)
}

// CreateProduct adds a product. Stock is tracked and the product is active
// unless the payload says otherwise.
// POST /admin/products
func CreateProduct(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Price == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price is required"})
			return
		}

		product := models.Product{
			TrackQuantity:     true,
			IsActive:          true,
			LowStockThreshold: defaultLowStockThreshold,
		}
		if err := input.applyTo(&product); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		db := db.WithContext(c.Request.Context())
		if err := checkReferences(db, &product); err != nil {
			respondSaveError(c, log, err)
			return
		}
		if err := db.Omit(clause.Associations).Create(&product).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("create product %s: %w", product.SKU, err))
			return
		}

		log.Info("product created", zap.Uint("product_id", product.ID), zap.String("sku", product.SKU))
		c.JSON(http.StatusCreated, product)
	}
}

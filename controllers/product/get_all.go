package productcontroller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pageSize = 20

// Filter narrows a product listing. Search matches name, SKU and category name.
type Filter struct {
	Search          string
	IncludeInactive bool
	InactiveOnly    bool
	LowStockOnly    bool
	FeaturedOnly    bool
	CategoryID      *uint
	BrandID         *uint
	// Slugs only match active categories and brands.
	CategorySlug string
	BrandSlug    string
	Page         int
}

type Page struct {
	Products   []models.Product `json:"products"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalCount int64            `json:"total_count"`
}

func (f Filter) apply(db *gorm.DB) *gorm.DB {
	q := db.Model(&models.Product{})
	switch {
	case f.InactiveOnly:
		q = q.Where("is_active = ?", false)
	case !f.IncludeInactive:
		q = q.Where("is_active = ?", true)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		byCategory := db.Model(&models.Category{}).Select("id").Where("LOWER(name) LIKE ?", like)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR category_id IN (?)", like, like, byCategory)
	}
	if f.LowStockOnly {
		q = q.Where("track_quantity = ? AND quantity <= low_stock_threshold", true)
	}
	if f.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.BrandID != nil {
		q = q.Where("brand_id = ?", *f.BrandID)
	}
	if f.CategorySlug != "" {
		q = q.Where("category_id IN (?)", db.Model(&models.Category{}).Select("id").
			Where("slug = ? AND is_active = ?", f.CategorySlug, true))
	}
	if f.BrandSlug != "" {
		q = q.Where("brand_id IN (?)", db.Model(&models.Brand{}).Select("id").
			Where("slug = ? AND is_active = ?", f.BrandSlug, true))
	}
	return q
}

func ListProducts(ctx context.Context, db *gorm.DB, f Filter) (*Page, error) {
	db = db.WithContext(ctx)
	page := f.Page
	if page < 1 {
		page = 1
	}

	result := &Page{Page: page, PageSize: pageSize}
	if err := f.apply(db).Count(&result.TotalCount).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := f.apply(db).Preload("Category").Preload("Brand").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&result.Products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return result, nil
}

// GetProducts lists the active catalog.
// GET /products?search=&category=<slug>&brand=<slug>&featured=true&page=
func GetProducts(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		f := Filter{
			Search:       c.Query("search"),
			CategorySlug: c.Query("category"),
			BrandSlug:    c.Query("brand"),
			FeaturedOnly: c.Query("featured") == "true",
			Page:         page,
		}
		respondWithPage(c, db, log, f)
	}
}

// GetAllProducts lists archived products too.
// GET /admin/products?search=&category=<id>&status=active|inactive|low_stock&page=
func GetAllProducts(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		f := Filter{Search: c.Query("search"), IncludeInactive: true, Page: page}

		switch status := c.Query("status"); status {
		case "":
		case "active":
			f.IncludeInactive = false
		case "inactive":
			f.InactiveOnly = true
		case "low_stock":
			f.LowStockOnly = true
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown product status %q", status)})
			return
		}

		if raw := c.Query("category"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
				return
			}
			categoryID := uint(id)
			f.CategoryID = &categoryID
		}
		respondWithPage(c, db, log, f)
	}
}

func respondWithPage(c *gin.Context, db *gorm.DB, log *zap.Logger, f Filter) {
	result, err := ListProducts(c.Request.Context(), db, f)
	if err != nil {
		apierror.Respond(c, log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

package productcontroller

import (
	"errors"
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

// grouping is implemented by *models.Category and *models.Brand.
type grouping[T any] interface {
	*T
	Group() *models.Grouping
	GroupID() uint
}

// GroupingInput is the staff payload for categories and brands. The slug is
// derived from the name when left empty.
type GroupingInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (in GroupingInput) applyTo(g *models.Grouping) error {
	if in.Name != nil {
		g.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		g.Description = *in.Description
	}
	if in.IsActive != nil {
		g.IsActive = *in.IsActive
	}
	switch {
	case in.Slug != nil && strings.TrimSpace(*in.Slug) != "":
		g.Slug = models.Slugify(*in.Slug)
	case g.Slug == "":
		g.Slug = models.Slugify(g.Name)
	}

	if g.Name == "" {
		return fmt.Errorf("name is required")
	}
	if g.Slug == "" {
		return fmt.Errorf("slug must contain letters or digits")
	}
	return nil
}

// nameTaken reports whether another row of the table already uses the name or slug.
func nameTaken[T any](db *gorm.DB, g *models.Grouping, exceptID uint) (bool, error) {
	var count int64
	err := db.Model(new(T)).
		Where("(LOWER(name) = ? OR slug = ?) AND id <> ?", strings.ToLower(g.Name), g.Slug, exceptID).
		Count(&count).Error
	return count > 0, err
}

func listGroupings[T any](db *gorm.DB, log *zap.Logger, includeInactive bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Order("name")
		if !includeInactive {
			q = q.Where("is_active = ?", true)
		}
		rows := []T{}
		if err := q.Find(&rows).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("list groupings: %w", err))
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// browseGrouping returns an active category or brand with one page of its
// active products.
func browseGrouping[T any, PT grouping[T]](db *gorm.DB, log *zap.Logger, noun string, scope func(*Filter, uint)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var row T
		err := db.WithContext(c.Request.Context()).
			Where("slug = ? AND is_active = ?", c.Param("slug"), true).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": strings.ToUpper(noun[:1]) + noun[1:] + " not found"})
			return
		}
		if err != nil {
			apierror.Respond(c, log, fmt.Errorf("load %s: %w", noun, err))
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		f := Filter{Page: page}
		scope(&f, PT(&row).GroupID())
		result, err := ListProducts(c.Request.Context(), db, f)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{noun: row, "products": result})
	}
}

func createGrouping[T any, PT grouping[T]](db *gorm.DB, log *zap.Logger, noun string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input GroupingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var row T
		g := PT(&row).Group()
		g.IsActive = true
		if err := input.applyTo(g); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		db := db.WithContext(c.Request.Context())
		taken, err := nameTaken[T](db, g, 0)
		if err != nil {
			apierror.Respond(c, log, fmt.Errorf("check %s name: %w", noun, err))
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("a %s named %q or with slug %q already exists", noun, g.Name, g.Slug)})
			return
		}
		if err := db.Create(&row).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("create %s: %w", noun, err))
			return
		}

		log.Info(noun+" created", zap.Uint("id", PT(&row).GroupID()), zap.String("slug", g.Slug))
		c.JSON(http.StatusCreated, row)
	}
}

// findGrouping loads the row named by the :id param, answering 400 or 404 itself.
func findGrouping[T any](db *gorm.DB, c *gin.Context, noun string) (*T, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + noun + " id"})
		return nil, false
	}
	var row T
	if err := db.WithContext(c.Request.Context()).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": strings.ToUpper(noun[:1]) + noun[1:] + " not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve " + noun})
		}
		return nil, false
	}
	return &row, true
}

func updateGrouping[T any, PT grouping[T]](db *gorm.DB, log *zap.Logger, noun string) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, ok := findGrouping[T](db, c, noun)
		if !ok {
			return
		}

		var input GroupingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		g := PT(row).Group()
		if err := input.applyTo(g); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		db := db.WithContext(c.Request.Context())
		taken, err := nameTaken[T](db, g, PT(row).GroupID())
		if err != nil {
			apierror.Respond(c, log, fmt.Errorf("check %s name: %w", noun, err))
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("a %s named %q or with slug %q already exists", noun, g.Name, g.Slug)})
			return
		}
		if err := db.Save(row).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("update %s: %w", noun, err))
			return
		}

		log.Info(noun+" updated", zap.Uint("id", PT(row).GroupID()))
		c.JSON(http.StatusOK, row)
	}
}

// archiveGrouping hides a category or brand. Its products keep the link and
// stay in the catalog.
func archiveGrouping[T any, PT grouping[T]](db *gorm.DB, log *zap.Logger, noun string) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, ok := findGrouping[T](db, c, noun)
		if !ok {
			return
		}
		if err := db.WithContext(c.Request.Context()).Model(row).Update("is_active", false).Error; err != nil {
			apierror.Respond(c, log, fmt.Errorf("archive %s: %w", noun, err))
			return
		}
		log.Info(noun+" archived", zap.Uint("id", PT(row).GroupID()))
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s %q has been archived", strings.ToUpper(noun[:1])+noun[1:], PT(row).Group().Name)})
	}
}

// GET /categories
func GetCategories(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return listGroupings[models.Category](db, log, false)
}

// GET /categories/:slug
func GetCategoryProducts(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return browseGrouping[models.Category](db, log, "category", func(f *Filter, id uint) { f.CategoryID = &id })
}

// GET /admin/categories
func GetAllCategories(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return listGroupings[models.Category](db, log, true)
}

// POST /admin/categories
func CreateCategory(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return createGrouping[models.Category](db, log, "category")
}

// PUT /admin/categories/:id
func UpdateCategory(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return updateGrouping[models.Category](db, log, "category")
}

// DELETE /admin/categories/:id
func ArchiveCategory(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return archiveGrouping[models.Category](db, log, "category")
}

// GET /brands
func GetBrands(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return listGroupings[models.Brand](db, log, false)
}

// GET /brands/:slug
func GetBrandProducts(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return browseGrouping[models.Brand](db, log, "brand", func(f *Filter, id uint) { f.BrandID = &id })
}

// GET /admin/brands
func GetAllBrands(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return listGroupings[models.Brand](db, log, true)
}

// POST /admin/brands
func CreateBrand(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return createGrouping[models.Brand](db, log, "brand")
}

// PUT /admin/brands/:id
func UpdateBrand(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return updateGrouping[models.Brand](db, log, "brand")
}

// DELETE /admin/brands/:id
func ArchiveBrand(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return archiveGrouping[models.Brand](db, log, "brand")
}

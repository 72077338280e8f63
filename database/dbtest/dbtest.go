// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/junaidrashid-git/storefront-api/database"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh migrated SQLite database private to the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateProduct inserts an active, stock-tracked product.
func CreateProduct(t testing.TB, db *gorm.DB, sku, price string, qty int) models.Product {
	t.Helper()

	p := models.Product{
		Name:              "Product " + sku,
		SKU:               sku,
		Price:             decimal.RequireFromString(price),
		Quantity:          qty,
		TrackQuantity:     true,
		LowStockThreshold: 5,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// Stock reads the current quantity of a product.
func Stock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()

	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Quantity
}

package productcontroller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/database/dbtest"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func archive(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false).Error)
}

func TestListProducts(t *testing.T) {
	db := dbtest.Open(t)
	mug := dbtest.CreateProduct(t, db, "MUG-1", "10.00", 3)
	dbtest.CreateProduct(t, db, "CUP-1", "5.00", 40)
	old := dbtest.CreateProduct(t, db, "MUG-OLD", "7.00", 0)
	archive(t, db, old.ID)

	public, err := ListProducts(context.Background(), db, Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, public.TotalCount)

	mugs, err := ListProducts(context.Background(), db, Filter{Search: "mug"})
	require.NoError(t, err)
	require.Len(t, mugs.Products, 1)
	assert.Equal(t, mug.ID, mugs.Products[0].ID)

	staff, err := ListProducts(context.Background(), db, Filter{Search: "MUG", IncludeInactive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, staff.TotalCount)

	low, err := ListProducts(context.Background(), db, Filter{IncludeInactive: true, LowStockOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, low.TotalCount)
}

func TestListProductsPaging(t *testing.T) {
	db := dbtest.Open(t)
	for i := 0; i < 25; i++ {
		dbtest.CreateProduct(t, db, fmt.Sprintf("SKU-%02d", i), "1.00", 10)
	}

	second, err := ListProducts(context.Background(), db, Filter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Products, 5)
	assert.Equal(t, 2, second.Page)
	assert.EqualValues(t, 25, second.TotalCount)
}

func TestParseStockRows(t *testing.T) {
	rows := [][]string{
		{"SKU", "Name", "Price", "Quantity", "TrackQuantity"},
		{"MUG-1", "Mug", "12.5", "7", "TRUE"},
		{"", "", "", "", ""},
		{"", "No sku", "1", "1"},
		{"CUP-1", "", "", "4", "false"},
		{"BAD-1", "Bad", "abc", "1"},
		{"BAD-2", "Bad", "1", "-3"},
		{"BAD-3", "Bad", "1", "1.5"},
		{"BAD-4", "Bad", "1", "1", "maybe"},
	}

	parsed, skipped := ParseStockRows(rows)

	require.Len(t, parsed, 2)
	assert.Equal(t, "MUG-1", parsed[0].SKU)
	assert.Equal(t, 2, parsed[0].Line)
	assert.True(t, parsed[0].Price.Decimal.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 7, parsed[0].Quantity)
	assert.True(t, parsed[0].TrackQuantity)

	assert.Equal(t, "CUP-1", parsed[1].SKU)
	assert.False(t, parsed[1].Price.Valid)
	assert.False(t, parsed[1].TrackQuantity)

	lines := make([]int, 0, len(skipped))
	for _, s := range skipped {
		lines = append(lines, s.Line)
	}
	assert.Equal(t, []int{4, 6, 7, 8, 9}, lines)
}

func TestApplyStock(t *testing.T) {
	db := dbtest.Open(t)
	mug := dbtest.CreateProduct(t, db, "MUG-1", "10.00", 3)

	result, err := ApplyStock(context.Background(), db, []StockRow{
		{Line: 2, SKU: "MUG-1", Quantity: 12, TrackQuantity: true},
		{Line: 3, SKU: "CUP-1", Name: "Cup", Price: decimal.NewNullDecimal(decimal.RequireFromString("4.00")), Quantity: 9, TrackQuantity: true},
		{Line: 4, SKU: "NEW-1", Quantity: 1, TrackQuantity: true},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 4, result.Skipped[0].Line)

	assert.Equal(t, 12, dbtest.Stock(t, db, mug.ID))
	var stored models.Product
	require.NoError(t, db.First(&stored, mug.ID).Error)
	assert.Equal(t, "Product MUG-1", stored.Name)
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(10)))

	var cup models.Product
	require.NoError(t, db.Where("sku = ?", "CUP-1").First(&cup).Error)
	assert.Equal(t, 9, cup.Quantity)
	assert.True(t, cup.IsActive)
}

func TestExportImportRoundTrip(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.CreateProduct(t, db, "MUG-1", "10.00", 3)
	dbtest.CreateProduct(t, db, "CUP-1", "4.50", 8)

	var products []models.Product
	require.NoError(t, db.Order("id").Find(&products).Error)

	var buf bytes.Buffer
	require.NoError(t, WriteProductsXLSX(&buf, products))

	file, err := xlsx.OpenReaderAt(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	parsed, skipped := ParseStockRows(sheetRows(file.Sheets[0]))
	assert.Empty(t, skipped)
	require.Len(t, parsed, 2)
	assert.Equal(t, "MUG-1", parsed[0].SKU)
	assert.Equal(t, 3, parsed[0].Quantity)
	assert.Equal(t, "CUP-1", parsed[1].SKU)
	assert.True(t, parsed[1].Price.Decimal.Equal(decimal.RequireFromString("4.5")))
}

func TestProductHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)
	log := zap.NewNop()

	r := gin.New()
	r.GET("/products/:id", GetProductByID(db, log))
	r.GET("/admin/products/:id", GetProductForStaff(db, log))
	r.POST("/admin/products", CreateProduct(db, log))
	r.PUT("/admin/products/:id", UpdateProduct(db, log))
	r.DELETE("/admin/products/:id", ArchiveProduct(db, log))

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, bytes.NewBufferString(body)))
		return w
	}

	w := do(http.MethodPost, "/admin/products", `{"name":"Mug","sku":"MUG-9","price":"12.50","quantity":4}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, created.TrackQuantity)
	assert.True(t, created.IsActive)
	assert.Equal(t, defaultLowStockThreshold, created.LowStockThreshold)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/admin/products", `{"name":"No price","sku":"X"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/admin/products", `{"sku":"X","price":"1"}`).Code)

	path := fmt.Sprintf("/admin/products/%d", created.ID)
	w = do(http.MethodPut, path, `{"price":"15.00","quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, dbtest.Stock(t, db, created.ID))

	assert.Equal(t, http.StatusOK, do(http.MethodGet, fmt.Sprintf("/products/%d", created.ID), "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, fmt.Sprintf("/products/%d", created.ID), "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/products/abc", "").Code)
}

package productcontroller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stock sheet columns, shared with the product export.
const (
	colSKU = iota
	colName
	colPrice
	colQuantity
	colTrackQuantity
	stockColumns
)

// StockRow is one parsed line of a stock import sheet. Empty name and price
// cells leave the existing values alone.
type StockRow struct {
	Line          int
	SKU           string
	Name          string
	Price         decimal.NullDecimal
	Quantity      int
	TrackQuantity bool
}

type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped []RowError `json:"skipped"`
}

// sheetRows flattens an xlsx sheet into trimmed cell strings.
func sheetRows(sheet *xlsx.Sheet) [][]string {
	out := make([][]string, 0, sheet.MaxRow)
	for i := 0; i < sheet.MaxRow; i++ {
		row := sheet.Rows[i]
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			cells = append(cells, strings.TrimSpace(cell.String()))
		}
		out = append(out, cells)
	}
	return out
}

// ParseStockRows reads data rows after the header. Bad rows are reported
// with their 1-based sheet line and left out.
func ParseStockRows(rows [][]string) ([]StockRow, []RowError) {
	var parsed []StockRow
	var skipped []RowError

	for i := 1; i < len(rows); i++ {
		line := i + 1
		cells := rows[i]
		get := func(index int) string {
			if index < len(cells) {
				return strings.TrimSpace(cells[index])
			}
			return ""
		}
		if strings.Join(cells, "") == "" {
			continue
		}

		r := StockRow{Line: line, SKU: get(colSKU), Name: get(colName), TrackQuantity: true}
		if r.SKU == "" {
			skipped = append(skipped, RowError{Line: line, Reason: "missing sku"})
			continue
		}
		if v := get(colPrice); v != "" {
			price, err := decimal.NewFromString(v)
			if err != nil || price.IsNegative() {
				skipped = append(skipped, RowError{Line: line, Reason: "invalid price " + strconv.Quote(v)})
				continue
			}
			r.Price = decimal.NewNullDecimal(price.Round(2))
		}
		qty, err := strconv.ParseFloat(get(colQuantity), 64)
		if err != nil || qty < 0 || qty != float64(int(qty)) {
			skipped = append(skipped, RowError{Line: line, Reason: "invalid quantity " + strconv.Quote(get(colQuantity))})
			continue
		}
		r.Quantity = int(qty)
		if v := get(colTrackQuantity); v != "" {
			track, err := strconv.ParseBool(strings.ToLower(v))
			if err != nil {
				skipped = append(skipped, RowError{Line: line, Reason: "invalid track_quantity " + strconv.Quote(v)})
				continue
			}
			r.TrackQuantity = track
		}
		parsed = append(parsed, r)
	}
	return parsed, skipped
}

// ApplyStock upserts the rows by SKU in one transaction. New SKUs need a
// name and a price; rows without them are skipped.
func ApplyStock(ctx context.Context, db *gorm.DB, rows []StockRow) (*ImportResult, error) {
	result := &ImportResult{Skipped: []RowError{}}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			var existing models.Product
			err := tx.Where("sku = ?", r.SKU).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if r.Name == "" || !r.Price.Valid {
					result.Skipped = append(result.Skipped, RowError{Line: r.Line, Reason: "new sku needs name and price"})
					continue
				}
				p := models.Product{
					Name:              r.Name,
					SKU:               r.SKU,
					Price:             r.Price.Decimal,
					Quantity:          r.Quantity,
					TrackQuantity:     r.TrackQuantity,
					LowStockThreshold: defaultLowStockThreshold,
					IsActive:          true,
				}
				if err := tx.Create(&p).Error; err != nil {
					return fmt.Errorf("line %d: create %s: %w", r.Line, r.SKU, err)
				}
				result.Created++
			case err != nil:
				return fmt.Errorf("line %d: load %s: %w", r.Line, r.SKU, err)
			default:
				updates := map[string]interface{}{
					"quantity":       r.Quantity,
					"track_quantity": r.TrackQuantity,
				}
				if r.Name != "" {
					updates["name"] = r.Name
				}
				if r.Price.Valid {
					updates["price"] = r.Price.Decimal
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return fmt.Errorf("line %d: update %s: %w", r.Line, r.SKU, err)
				}
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ImportStockFromExcel reads an xlsx upload (sku, name, price, quantity,
// track_quantity) and upserts products by SKU.
// POST /admin/products/import-excel
func ImportStockFromExcel(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}
		if len(xlFile.Sheets) == 0 || xlFile.Sheets[0].MaxRow < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		rows, skipped := ParseStockRows(sheetRows(xlFile.Sheets[0]))
		result, err := ApplyStock(c.Request.Context(), db, rows)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		result.Skipped = append(skipped, result.Skipped...)

		log.Info("stock imported",
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("skipped", len(result.Skipped)))
		c.JSON(http.StatusOK, result)
	}
}

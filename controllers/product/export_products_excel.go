package productcontroller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WriteProductsXLSX writes the catalog with the stock columns first, so an
// exported sheet can be edited and imported back.
func WriteProductsXLSX(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	headers := make([]string, stockColumns)
	headers[colSKU] = "SKU"
	headers[colName] = "Name"
	headers[colPrice] = "Price"
	headers[colQuantity] = "Quantity"
	headers[colTrackQuantity] = "TrackQuantity"
	headers = append(headers, "LowStockThreshold", "IsActive", "ID", "CreatedAt", "UpdatedAt")

	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.SKU)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Quantity)
		row.AddCell().SetValue(boolCell(p.TrackQuantity))
		row.AddCell().SetValue(p.LowStockThreshold)
		row.AddCell().SetValue(boolCell(p.IsActive))
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}

func boolCell(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// GET /admin/products/export-excel
func ExportProductsToExcel(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.WithContext(c.Request.Context()).Order("id").Find(&products).Error; err != nil {
			apierror.Respond(c, log, err)
			return
		}

		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := WriteProductsXLSX(c.Writer, products); err != nil {
			log.Error("write products export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}

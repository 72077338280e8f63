package dashboardControllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const PageSize = 20

// OrderFilter narrows the staff order list. Search matches order number,
// customer name and email, case-insensitively.
type OrderFilter struct {
	Status models.OrderStatus
	Search string
}

type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}

func (f OrderFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(order_number) LIKE ? OR LOWER(shipping_full_name) LIKE ? OR LOWER(shipping_email) LIKE ?",
			like, like, like)
	}
	return q
}

// ListOrders returns one page of orders, newest first. Pages start at 1 and
// out of range pages are clamped like the storefront paginator does.
func ListOrders(ctx context.Context, db *gorm.DB, filter OrderFilter, page int) (*OrderPage, error) {
	db = db.WithContext(ctx)

	var total int64
	if err := filter.apply(db.Model(&models.Order{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	pages := int((total + PageSize - 1) / PageSize)
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	result := &OrderPage{Page: page, PageSize: PageSize, TotalCount: total, TotalPages: pages}
	if err := filter.apply(db.Model(&models.Order{})).
		Preload("Items").
		Preload("Payment").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * PageSize).
		Limit(PageSize).
		Find(&result.Orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return result, nil
}

func filterFromQuery(c *gin.Context) (OrderFilter, error) {
	f := OrderFilter{Search: c.Query("search")}
	if status := c.Query("status"); status != "" {
		f.Status = models.OrderStatus(status)
		known := false
		for _, s := range models.OrderStatuses {
			if s == f.Status {
				known = true
				break
			}
		}
		if !known {
			return f, fmt.Errorf("%w: %q", models.ErrUnknownStatus, status)
		}
	}
	return f, nil
}

// GET /admin/orders
func ListOrdersHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := filterFromQuery(c)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

		result, err := ListOrders(c.Request.Context(), db, filter, page)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// WriteOrdersXLSX writes one row per order to an xlsx workbook.
func WriteOrdersXLSX(w io.Writer, orders []models.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	headers := []string{
		"OrderNumber", "UserID", "Status", "PaymentStatus", "PaymentMethod",
		"Customer", "Email", "Phone", "City", "Country",
		"Items", "Subtotal", "Tax", "Shipping", "Total", "CreatedAt",
	}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, o := range orders {
		units := 0
		for _, it := range o.Items {
			units += it.Quantity
		}

		row := sheet.AddRow()
		row.AddCell().SetValue(o.OrderNumber)
		row.AddCell().SetValue(o.UserID)
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(string(o.PaymentStatus))
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(o.Shipping.FullName)
		row.AddCell().SetValue(o.Shipping.Email)
		row.AddCell().SetValue(o.Shipping.Phone)
		row.AddCell().SetValue(o.Shipping.City)
		row.AddCell().SetValue(o.Shipping.Country)
		row.AddCell().SetValue(units)
		row.AddCell().SetValue(o.Subtotal.StringFixed(2))
		row.AddCell().SetValue(o.TaxAmount.StringFixed(2))
		row.AddCell().SetValue(o.ShippingCost.StringFixed(2))
		row.AddCell().SetValue(o.TotalAmount.StringFixed(2))
		row.AddCell().SetValue(o.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}

// GET /admin/orders/export
func ExportOrdersHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := filterFromQuery(c)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}

		var orders []models.Order
		if err := filter.apply(db.WithContext(c.Request.Context()).Model(&models.Order{})).
			Preload("Items").
			Order("created_at DESC, id DESC").
			Find(&orders).Error; err != nil {
			apierror.Respond(c, log, err)
			return
		}

		c.Header("Content-Disposition", "attachment; filename=orders.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := WriteOrdersXLSX(c.Writer, orders); err != nil {
			log.Error("write orders export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
		log.Info("orders exported", zap.Int("count", len(orders)))
	}
}

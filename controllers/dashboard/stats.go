// Package dashboardControllers serves the staff back office: store stats,
// order search and export, and the user list.
package dashboardControllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const topProductsLimit = 5

type Revenue struct {
	Total      decimal.Decimal `json:"total"`
	Last30Days decimal.Decimal `json:"last_30_days"`
	Last7Days  decimal.Decimal `json:"last_7_days"`
}

type TopProduct struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	UnitsSold int64  `json:"units_sold"`
}

type Stats struct {
	TotalOrders        int64          `json:"total_orders"`
	PendingOrders      int64          `json:"pending_orders"`
	ProcessingOrders   int64          `json:"processing_orders"`
	DeliveredOrders    int64          `json:"delivered_orders"`
	Revenue            Revenue        `json:"revenue"`
	TotalProducts      int64          `json:"total_products"`
	ActiveProducts     int64          `json:"active_products"`
	LowStockProducts   int64          `json:"low_stock_products"`
	OutOfStockProducts int64          `json:"out_of_stock_products"`
	TotalUsers         int64          `json:"total_users"`
	NewUsers30Days     int64          `json:"new_users_30_days"`
	TopProducts        []TopProduct   `json:"top_products"`
	RecentOrders       []models.Order `json:"recent_orders"`
}

// ComputeStats gathers the dashboard figures. Revenue only counts orders
// whose payment completed; the 30 and 7 day windows start at midnight.
func ComputeStats(ctx context.Context, db *gorm.DB, now time.Time) (*Stats, error) {
	db = db.WithContext(ctx)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	since30 := today.AddDate(0, 0, -30)
	since7 := today.AddDate(0, 0, -7)

	var s Stats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&s.TotalOrders, db.Model(&models.Order{})},
		{&s.PendingOrders, db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending)},
		{&s.ProcessingOrders, db.Model(&models.Order{}).Where("status = ?", models.OrderStatusProcessing)},
		{&s.DeliveredOrders, db.Model(&models.Order{}).Where("status = ?", models.OrderStatusDelivered)},
		{&s.TotalProducts, db.Model(&models.Product{})},
		{&s.ActiveProducts, db.Model(&models.Product{}).Where("is_active = ?", true)},
		{&s.LowStockProducts, db.Model(&models.Product{}).
			Where("track_quantity = ? AND quantity <= low_stock_threshold", true)},
		{&s.OutOfStockProducts, db.Model(&models.Product{}).
			Where("track_quantity = ? AND quantity <= 0", true)},
		{&s.TotalUsers, db.Model(&models.User{})},
		{&s.NewUsers30Days, db.Model(&models.User{}).Where("created_at >= ?", since30)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	var err error
	if s.Revenue.Total, err = revenueSince(db, time.Time{}); err != nil {
		return nil, err
	}
	if s.Revenue.Last30Days, err = revenueSince(db, since30); err != nil {
		return nil, err
	}
	if s.Revenue.Last7Days, err = revenueSince(db, since7); err != nil {
		return nil, err
	}

	// Units sold on orders that were not cancelled.
	if err := db.Model(&models.OrderItem{}).
		Select("order_items.product_id, order_items.product_name AS name, order_items.product_sku AS sku, SUM(order_items.quantity) AS units_sold").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", models.OrderStatusCancelled).
		Group("order_items.product_id, order_items.product_name, order_items.product_sku").
		Order("units_sold DESC, order_items.product_id").
		Limit(topProductsLimit).
		Scan(&s.TopProducts).Error; err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	if err := db.Order("created_at DESC, id DESC").Limit(5).Find(&s.RecentOrders).Error; err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	return &s, nil
}

func revenueSince(db *gorm.DB, since time.Time) (decimal.Decimal, error) {
	q := db.Model(&models.Order{}).Where("payment_status = ?", models.PaymentStatusCompleted)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	var total decimal.NullDecimal
	if err := q.Select("SUM(total_amount)").Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("revenue: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

// GET /admin/stats
func StatsHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := ComputeStats(c.Request.Context(), db, time.Now())
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

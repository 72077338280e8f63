package orderControllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// FindOrder loads an order with items and payment. An empty userID skips
// the ownership filter.
func FindOrder(db *gorm.DB, orderNumber, userID string) (*models.Order, error) {
	q := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payment").
		Where("order_number = ?", orderNumber)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

const ordersPageSize = 20

// GET /user/orders?page=
func GetUserOrdersHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}

		var orders []models.Order
		if err := db.WithContext(c.Request.Context()).
			Where("user_id = ?", userID).
			Preload("Items").
			Order("created_at DESC, id DESC").
			Offset((page - 1) * ordersPageSize).
			Limit(ordersPageSize).
			Find(&orders).Error; err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "page": page, "page_size": ordersPageSize})
	}
}

// GET /user/orders/:orderNumber
func GetUserOrderHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := FindOrder(db.WithContext(c.Request.Context()), c.Param("orderNumber"), c.GetString("user_id"))
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":      order,
			"can_cancel": CanCancel(order.Status),
		})
	}
}

// POST /user/orders/:orderNumber/cancel
func CancelOrderHandler(svc *Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Cancel(c.Request.Context(), c.GetString("user_id"), c.Param("orderNumber"))
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Order " + order.OrderNumber + " has been cancelled",
			"order":   order,
		})
	}
}

// GET /admin/orders/:orderNumber
func GetOrderByNumberHandler(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := FindOrder(db.WithContext(c.Request.Context()), c.Param("orderNumber"), "")
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:orderNumber/status
func UpdateOrderStatusHandler(svc *Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		change, err := svc.SetStatusByStaff(c.Request.Context(), c.Param("orderNumber"), req.Status)
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}
		c.JSON(http.StatusOK, change)
	}
}

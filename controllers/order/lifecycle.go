package orderControllers

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transitions lists the statuses each status may move to.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusRefunded},
	models.OrderStatusDelivered:  {models.OrderStatusRefunded},
}

// CanTransition reports whether from may move to to. Staying put is allowed.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanCancel reports whether the buyer may still cancel an order in status.
func CanCancel(status models.OrderStatus) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusProcessing
}

// Map string to OrderStatus
func mapOrderStatus(status string) (models.OrderStatus, error) {
	s := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	for _, known := range models.OrderStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownStatus, status)
}

// LockOrder loads an order with its items and payment under a row lock.
// An empty userID skips the ownership filter.
func LockOrder(tx *gorm.DB, orderNumber, userID string) (*models.Order, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
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
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &order, nil
}

// SetStatus writes a new order and payment status pair if the move is legal.
func SetStatus(tx *gorm.DB, order *models.Order, status models.OrderStatus, payment models.PaymentStatus) error {
	if !CanTransition(order.Status, status) {
		return &models.TransitionError{From: order.Status, To: status}
	}
	return writeStatus(tx, order, status, payment)
}

func writeStatus(tx *gorm.DB, order *models.Order, status models.OrderStatus, payment models.PaymentStatus) error {
	if err := tx.Model(order).Omit(clause.Associations).Updates(map[string]interface{}{
		"status":         status,
		"payment_status": payment,
	}).Error; err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	order.Status = status
	order.PaymentStatus = payment
	return nil
}

// RestoreInventory gives every order line's quantity back to its product,
// locking products in ascending id order like checkout does.
func RestoreInventory(tx *gorm.DB, items []models.OrderItem) error {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b models.OrderItem) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	for _, item := range sorted {
		var product models.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, item.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		if !product.TrackQuantity {
			continue
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error; err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}

// Cancel cancels a pending or processing order of userID and restocks it.
func (s *Service) Cancel(ctx context.Context, userID, orderNumber string) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = LockOrder(tx, orderNumber, userID)
		if err != nil {
			return err
		}
		if !CanCancel(order.Status) {
			return &models.TransitionError{From: order.Status, To: models.OrderStatusCancelled}
		}
		if err := RestoreInventory(tx, order.Items); err != nil {
			return err
		}
		return writeStatus(tx, order, models.OrderStatusCancelled, models.PaymentStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID))
	events.Emit(ctx, s.events, s.log, events.NewOrderEvent(events.OrderCancelled, order))
	return order, nil
}

// StatusChange is the result of a staff status edit.
type StatusChange struct {
	Order    *models.Order      `json:"order"`
	Previous models.OrderStatus `json:"previous_status"`
	Override bool               `json:"override"`
}

// SetStatusByStaff sets any known status on an order. Moves outside the
// transition table are allowed but flagged as overrides, and never touch
// stock or payment status.
func (s *Service) SetStatusByStaff(ctx context.Context, orderNumber, status string) (*StatusChange, error) {
	target, err := mapOrderStatus(status)
	if err != nil {
		return nil, err
	}

	var change StatusChange
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := LockOrder(tx, orderNumber, "")
		if err != nil {
			return err
		}
		change.Previous = order.Status
		change.Override = !CanTransition(order.Status, target)
		change.Order = order
		return writeStatus(tx, order, target, order.PaymentStatus)
	})
	if err != nil {
		return nil, err
	}

	eventType := events.OrderStatusChanged
	if change.Override {
		eventType = events.OrderStatusOverride
		s.log.Warn("order status overridden by staff",
			zap.String("order_number", orderNumber),
			zap.String("from", string(change.Previous)),
			zap.String("to", string(target)))
	} else {
		s.log.Info("order status changed",
			zap.String("order_number", orderNumber),
			zap.String("from", string(change.Previous)),
			zap.String("to", string(target)))
	}
	events.Emit(ctx, s.events, s.log, events.NewOrderEvent(eventType, change.Order))
	return &change, nil
}

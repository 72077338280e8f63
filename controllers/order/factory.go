package orderControllers

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CheckoutRequest is the buyer input of a checkout.
type CheckoutRequest struct {
	Shipping      models.ShippingInfo  `json:"shipping"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	Notes         string               `json:"order_notes"`
}

// Service owns order creation and every order status change.
type Service struct {
	db       *gorm.DB
	numbers  *NumberGenerator
	events   events.Publisher
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(db *gorm.DB, numbers *NumberGenerator, pub events.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		db:       db,
		numbers:  numbers,
		events:   pub,
		log:      log,
		validate: validator.New(),
	}
}

// CreateOrder turns the user's cart into a pending order in one transaction:
// stock is locked, checked and decremented, lines are snapshotted and the
// cart is emptied. Any failure leaves stock, cart and orders untouched.
func (s *Service) CreateOrder(ctx context.Context, userID string, req CheckoutRequest) (*models.Order, error) {
	if err := s.validateCheckout(req); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := cartControllers.SnapshotTx(tx, cartControllers.UserIdentity(userID))
		if err != nil {
			return err
		}
		if len(snap.Items) == 0 {
			return models.ErrEmptyCart
		}

		number, err := s.numbers.Next(ctx, func(_ context.Context, candidate string) (bool, error) {
			var count int64
			if err := tx.Model(&models.Order{}).Where("order_number = ?", candidate).Count(&count).Error; err != nil {
				return false, err
			}
			return count > 0, nil
		})
		if err != nil {
			return err
		}

		for _, line := range byProductID(snap.Items) {
			if err := reserveStock(tx, line); err != nil {
				return err
			}
		}

		items := make([]models.OrderItem, 0, len(snap.Items))
		for _, line := range snap.Items {
			items = append(items, models.OrderItem{
				ProductID:    line.ProductID,
				ProductName:  line.Name,
				ProductSKU:   line.SKU,
				ProductPrice: line.Price,
				Quantity:     line.Quantity,
			})
		}

		order = models.Order{
			OrderNumber:   number,
			UserID:        userID,
			Status:        models.OrderStatusPending,
			PaymentStatus: models.PaymentStatusPending,
			PaymentMethod: req.PaymentMethod,
			Shipping:      req.Shipping,
			Subtotal:      snap.Subtotal,
			TaxAmount:     snap.Tax,
			ShippingCost:  snap.Shipping,
			TotalAmount:   snap.Total,
			Notes:         strings.TrimSpace(req.Notes),
			Items:         items,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		return cartControllers.RemoveProductsTx(tx, snap.CartID, snap.ProductIDs())
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("lines", len(order.Items)))
	events.Emit(ctx, s.events, s.log, events.NewOrderEvent(events.OrderCreated, &order))
	return &order, nil
}

func (s *Service) validateCheckout(req CheckoutRequest) error {
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", models.ErrInvalidCheckout, req.PaymentMethod)
	}
	if err := s.validate.Struct(req.Shipping); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w: invalid shipping fields %s", models.ErrInvalidCheckout, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", models.ErrInvalidCheckout, err)
	}
	return nil
}

// byProductID returns a copy of lines in ascending product id order. Product
// rows are always locked in this order.
func byProductID(lines []cartControllers.Line) []cartControllers.Line {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b cartControllers.Line) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return sorted
}

// reserveStock locks the product row and takes line.Quantity units from it.
func reserveStock(tx *gorm.DB, line cartControllers.Line) error {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, line.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ErrProductUnavailable
		}
		return fmt.Errorf("lock product: %w", err)
	}
	if !product.IsActive {
		return models.ErrProductUnavailable
	}

	if !product.TrackQuantity {
		return nil
	}
	if product.Quantity < line.Quantity {
		return &models.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   line.Quantity,
			Available:   product.Quantity,
		}
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", line.Quantity)).Error; err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	return nil
}

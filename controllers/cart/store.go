package cartControllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Identity selects a cart: exactly one of UserID or SessionKey is set.
type Identity struct {
	UserID     string
	SessionKey string
}

func UserIdentity(userID string) Identity       { return Identity{UserID: userID} }
func SessionIdentity(sessionKey string) Identity { return Identity{SessionKey: sessionKey} }

func (i Identity) Validate() error {
	if (i.UserID == "") == (i.SessionKey == "") {
		return models.ErrInvalidIdentity
	}
	return nil
}

func (i Identity) scope(tx *gorm.DB) *gorm.DB {
	if i.UserID != "" {
		return tx.Where("user_id = ?", i.UserID)
	}
	return tx.Where("session_key = ?", i.SessionKey)
}

// Line is one cart item joined with its live product data.
type Line struct {
	ProductID     uint            `json:"product_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
	TrackQuantity bool            `json:"track_quantity"`
	Stock         int             `json:"stock"`
	IsActive      bool            `json:"is_active"`
}

// Snapshot is a consistent read of a cart and its totals.
type Snapshot struct {
	CartID     uint   `json:"cart_id"`
	Items      []Line `json:"items"`
	TotalItems int    `json:"total_items"`
	models.Totals
}

// Store owns every read and write of carts and cart items.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// Resolve returns the cart of id, creating it on first access.
func (s *Store) Resolve(ctx context.Context, id Identity) (*models.Cart, error) {
	return ResolveTx(s.db.WithContext(ctx), id)
}

// ResolveTx is Resolve inside a caller-owned transaction. The cart row stays
// locked until the transaction ends, so writes to one cart serialize with
// checkout.
func ResolveTx(tx *gorm.DB, id Identity) (*models.Cart, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var cart models.Cart
	err := id.scope(tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	if id.UserID != "" {
		cart.UserID = &id.UserID
	} else {
		cart.SessionKey = &id.SessionKey
	}
	// A concurrent first access may win the unique index; read its row back.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	if cart.ID == 0 {
		if err := id.scope(tx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart).Error; err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
	}
	return &cart, nil
}

// AddItem adds qty units of a product, merging with an existing line.
func (s *Store) AddItem(ctx context.Context, id Identity, productID uint, qty int) (*models.CartItem, error) {
	if qty <= 0 {
		return nil, models.ErrInvalidQuantity
	}

	var item models.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := activeProduct(tx, productID)
		if err != nil {
			return err
		}

		cart, err := ResolveTx(tx, id)
		if err != nil {
			return err
		}

		found, err := findItem(tx, cart.ID, productID, &item)
		if err != nil {
			return err
		}

		wanted := qty
		if found {
			wanted += item.Quantity
		}
		if !product.HasStock(wanted) {
			return &models.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   wanted,
				Available:   product.Quantity,
			}
		}

		now := time.Now()
		if found {
			item.Quantity = wanted
			item.UpdatedAt = now
			if err := tx.Model(&item).Omit(clause.Associations).Updates(map[string]interface{}{
				"quantity":   wanted,
				"updated_at": now,
			}).Error; err != nil {
				return fmt.Errorf("update cart item: %w", err)
			}
		} else {
			item = models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  qty,
				AddedAt:   now,
				UpdatedAt: now,
			}
			if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
				return fmt.Errorf("create cart item: %w", err)
			}
		}
		item.Product = *product
		return touchCart(tx, cart.ID, now)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("cart item added",
		zap.Uint("product_id", productID),
		zap.Int("quantity", item.Quantity),
	)
	return &item, nil
}

// UpdateItem sets the quantity of a line. Zero or less removes the line.
func (s *Store) UpdateItem(ctx context.Context, id Identity, productID uint, qty int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := ResolveTx(tx, id)
		if err != nil {
			return err
		}

		if qty <= 0 {
			if err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).
				Delete(&models.CartItem{}).Error; err != nil {
				return fmt.Errorf("remove cart item: %w", err)
			}
			return touchCart(tx, cart.ID, time.Now())
		}

		var item models.CartItem
		found, err := findItem(tx, cart.ID, productID, &item)
		if err != nil {
			return err
		}
		if !found {
			return models.ErrCartItemNotFound
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrProductUnavailable
			}
			return fmt.Errorf("load product: %w", err)
		}
		if !product.HasStock(qty) {
			return &models.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   qty,
				Available:   product.Quantity,
			}
		}

		now := time.Now()
		if err := tx.Model(&item).Omit(clause.Associations).Updates(map[string]interface{}{
			"quantity":   qty,
			"updated_at": now,
		}).Error; err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		return touchCart(tx, cart.ID, now)
	})
}

// RemoveItem deletes a line from the cart.
func (s *Store) RemoveItem(ctx context.Context, id Identity, productID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := ResolveTx(tx, id)
		if err != nil {
			return err
		}

		result := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Delete(&models.CartItem{})
		if result.Error != nil {
			return fmt.Errorf("remove cart item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return models.ErrCartItemNotFound
		}
		return touchCart(tx, cart.ID, time.Now())
	})
}

// Clear empties the cart but keeps the cart row.
func (s *Store) Clear(ctx context.Context, id Identity) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := ResolveTx(tx, id)
		if err != nil {
			return err
		}
		return ClearTx(tx, cart.ID)
	})
}

// ClearTx deletes every item of a cart inside a caller-owned transaction.
func ClearTx(tx *gorm.DB, cartID uint) error {
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return touchCart(tx, cartID, time.Now())
}

// RemoveProductsTx deletes the lines of the given products only. Checkout uses
// it so a line that was not part of the snapshot stays in the cart.
func RemoveProductsTx(tx *gorm.DB, cartID uint, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	if err := tx.Where("cart_id = ? AND product_id IN ?", cartID, productIDs).
		Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("remove ordered cart items: %w", err)
	}
	return touchCart(tx, cartID, time.Now())
}

// Merge folds the guest cart of sessionKey into the cart of userID and deletes
// the guest cart. It reports false when there was no guest cart to merge.
func (s *Store) Merge(ctx context.Context, sessionKey, userID string) (bool, error) {
	if sessionKey == "" || userID == "" {
		return false, nil
	}

	merged := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var guestCart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_key = ?", sessionKey).First(&guestCart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load guest cart: %w", err)
		}
		if err := tx.Where("cart_id = ?", guestCart.ID).Find(&guestCart.Items).Error; err != nil {
			return fmt.Errorf("load guest cart items: %w", err)
		}

		userCart, err := ResolveTx(tx, UserIdentity(userID))
		if err != nil {
			return err
		}

		now := time.Now()
		for _, guestItem := range guestCart.Items {
			var existing models.CartItem
			found, err := findItem(tx, userCart.ID, guestItem.ProductID, &existing)
			if err != nil {
				return err
			}

			if found {
				if err := tx.Model(&existing).Omit(clause.Associations).Updates(map[string]interface{}{
					"quantity":   existing.Quantity + guestItem.Quantity,
					"updated_at": now,
				}).Error; err != nil {
					return fmt.Errorf("merge cart item: %w", err)
				}
				continue
			}

			moved := models.CartItem{
				CartID:    userCart.ID,
				ProductID: guestItem.ProductID,
				Quantity:  guestItem.Quantity,
				AddedAt:   guestItem.AddedAt,
				UpdatedAt: now,
			}
			if err := tx.Omit(clause.Associations).Create(&moved).Error; err != nil {
				return fmt.Errorf("move cart item: %w", err)
			}
		}

		if err := tx.Where("cart_id = ?", guestCart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("delete guest cart items: %w", err)
		}
		if err := tx.Delete(&models.Cart{}, guestCart.ID).Error; err != nil {
			return fmt.Errorf("delete guest cart: %w", err)
		}
		merged = true
		return touchCart(tx, userCart.ID, now)
	})
	if err != nil {
		return false, err
	}

	if merged {
		s.log.Info("guest cart merged", zap.String("user_id", userID))
	}
	return merged, nil
}

// Snapshot reads the cart of id with its lines and totals.
func (s *Store) Snapshot(ctx context.Context, id Identity) (*Snapshot, error) {
	var snap *Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		snap, err = SnapshotTx(tx, id)
		return err
	})
	return snap, err
}

// SnapshotTx reads the lines of a cart in a single joined query, newest first.
func SnapshotTx(tx *gorm.DB, id Identity) (*Snapshot, error) {
	cart, err := ResolveTx(tx, id)
	if err != nil {
		return nil, err
	}

	var lines []Line
	if err := tx.Table("cart_items").
		Select("cart_items.product_id, products.name, products.sku, products.price, cart_items.quantity, " +
			"products.track_quantity, products.quantity AS stock, products.is_active").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cart.ID).
		Order("cart_items.added_at DESC, cart_items.id DESC").
		Scan(&lines).Error; err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}

	subtotal := decimal.Zero
	count := 0
	for i := range lines {
		lines[i].LineTotal = lines[i].Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
		subtotal = subtotal.Add(lines[i].LineTotal)
		count += lines[i].Quantity
	}
	if lines == nil {
		lines = []Line{}
	}

	return &Snapshot{
		CartID:     cart.ID,
		Items:      lines,
		TotalItems: count,
		Totals:     models.ComputeTotals(subtotal),
	}, nil
}

// ProductIDs lists the products of the snapshot's lines.
func (s *Snapshot) ProductIDs() []uint {
	ids := make([]uint, len(s.Items))
	for i, line := range s.Items {
		ids[i] = line.ProductID
	}
	return ids
}

func activeProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProductUnavailable
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	if !product.IsActive {
		return nil, models.ErrProductUnavailable
	}
	return &product, nil
}

func findItem(tx *gorm.DB, cartID, productID uint, item *models.CartItem) (bool, error) {
	err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load cart item: %w", err)
	}
	return true, nil
}

func touchCart(tx *gorm.DB, cartID uint, now time.Time) error {
	if err := tx.Model(&models.Cart{}).Where("id = ?", cartID).UpdateColumn("updated_at", now).Error; err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

package orderControllers

import (
	"context"
	"errors"
	"testing"
	"time"

	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/database/dbtest"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "100.00", 5)
	f.addToCart(t, "u1", p.ID, 3)

	order := f.checkout(t, "u1")

	assert.Regexp(t, `^ORD-[A-Z0-9]{10}$`, order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "300.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "30.00", order.TaxAmount.StringFixed(2))
	assert.True(t, order.ShippingCost.IsZero())
	assert.Equal(t, "330.00", order.TotalAmount.StringFixed(2))
	assert.True(t, order.TotalsBalanced())
	assert.Equal(t, "leave at the door", order.Notes)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "MUG-1", order.Items[0].ProductSKU)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "300.00", order.Items[0].LineTotal().StringFixed(2))

	assert.Equal(t, 2, dbtest.Stock(t, f.db, p.ID))

	snap, err := f.carts.Snapshot(context.Background(), cartControllers.UserIdentity("u1"))
	require.NoError(t, err)
	assert.Empty(t, snap.Items)

	stored, err := FindOrder(f.db, order.OrderNumber, "u1")
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("330")))
	assert.Equal(t, "Ada Lovelace", stored.Shipping.FullName)

	assert.Equal(t, []events.EventType{events.OrderCreated}, f.events.types())
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), "u1", validCheckout(models.PaymentMethodCOD))

	assert.ErrorIs(t, err, models.ErrEmptyCart)
	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	scarce := dbtest.CreateProduct(t, f.db, "SCARCE", "10.00", 3)
	plenty := dbtest.CreateProduct(t, f.db, "PLENTY", "20.00", 5)
	f.addToCart(t, "u1", scarce.ID, 1)
	f.addToCart(t, "u1", plenty.ID, 2)

	// Another buyer drains the scarce product after it was carted.
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", scarce.ID).UpdateColumn("quantity", 0).Error)

	_, err := f.svc.CreateOrder(context.Background(), "u1", validCheckout(models.PaymentMethodCOD))

	var stockErr *models.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, scarce.ID, stockErr.ProductID)
	assert.Equal(t, "Product SCARCE", stockErr.ProductName)
	assert.Equal(t, 0, stockErr.Available)

	assert.Equal(t, 5, dbtest.Stock(t, f.db, plenty.ID))
	assert.Equal(t, 0, dbtest.Stock(t, f.db, scarce.ID))

	snap, err := f.carts.Snapshot(context.Background(), cartControllers.UserIdentity("u1"))
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 3, snap.TotalItems)

	var orders, items int64
	f.db.Model(&models.Order{}).Count(&orders)
	f.db.Model(&models.OrderItem{}).Count(&items)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Empty(t, f.events.types())
}

func TestCreateOrderValidatesInput(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "100.00", 5)
	f.addToCart(t, "u1", p.ID, 1)

	req := validCheckout(models.PaymentMethodCOD)
	req.Shipping.Email = "not-an-email"
	_, err := f.svc.CreateOrder(context.Background(), "u1", req)
	assert.ErrorIs(t, err, models.ErrInvalidCheckout)
	assert.ErrorContains(t, err, "Email")

	_, err = f.svc.CreateOrder(context.Background(), "u1", validCheckout("card"))
	assert.ErrorIs(t, err, models.ErrInvalidCheckout)

	assert.Equal(t, 5, dbtest.Stock(t, f.db, p.ID))
}

func TestCreateOrderUntrackedProduct(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "EBOOK", "5.00", 0)
	require.NoError(t, f.db.Model(&p).Update("track_quantity", false).Error)
	f.addToCart(t, "u1", p.ID, 4)

	order := f.checkout(t, "u1")

	assert.Equal(t, "22.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, 0, dbtest.Stock(t, f.db, p.ID))
}

func TestOrderSnapshotIsFrozen(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "100.00", 5)
	f.addToCart(t, "u1", p.ID, 1)
	order := f.checkout(t, "u1")

	require.NoError(t, f.db.Model(&p).Updates(map[string]interface{}{"price": decimal.RequireFromString("250"), "name": "Renamed"}).Error)

	stored, err := FindOrder(f.db, order.OrderNumber, "")
	require.NoError(t, err)
	assert.Equal(t, "Product MUG-1", stored.Items[0].ProductName)
	assert.Equal(t, "100.00", stored.Items[0].ProductPrice.StringFixed(2))

	err = f.db.Model(stored).Updates(map[string]interface{}{"total_amount": decimal.NewFromInt(1)}).Error
	assert.ErrorIs(t, err, models.ErrImmutableOrder)

	err = f.db.Model(&stored.Items[0]).Update("product_name", "Other").Error
	assert.ErrorIs(t, err, models.ErrImmutableOrderItem)
}

func TestCreateOrderNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "1.00", 100)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		f.addToCart(t, "u1", p.ID, 1)
		order := f.checkout(t, "u1")
		assert.False(t, seen[order.OrderNumber], order.OrderNumber)
		seen[order.OrderNumber] = true
	}
	assert.Equal(t, 80, dbtest.Stock(t, f.db, p.ID))
}

func TestCreateOrderKeepsLinesAddedDuringCheckout(t *testing.T) {
	f := newFixture(t)
	a := dbtest.CreateProduct(t, f.db, "MUG-1", "10.00", 5)
	b := dbtest.CreateProduct(t, f.db, "CUP-1", "4.00", 5)
	f.addToCart(t, "u1", a.ID, 1)
	cart, err := f.carts.Resolve(context.Background(), cartControllers.UserIdentity("u1"))
	require.NoError(t, err)

	// A line lands in the cart after the snapshot was read, before the order is written.
	added := false
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:late_cart_line", func(tx *gorm.DB) {
		if added || tx.Statement.Table != "orders" {
			return
		}
		added = true
		now := time.Now()
		late := models.CartItem{CartID: cart.ID, ProductID: b.ID, Quantity: 2, AddedAt: now, UpdatedAt: now}
		if err := tx.Session(&gorm.Session{NewDB: true}).Omit(clause.Associations).Create(&late).Error; err != nil {
			_ = tx.AddError(err)
		}
	}))

	order := f.checkout(t, "u1")
	require.True(t, added)

	require.Len(t, order.Items, 1)
	assert.Equal(t, a.ID, order.Items[0].ProductID)
	assert.Equal(t, 4, dbtest.Stock(t, f.db, a.ID))
	assert.Equal(t, 5, dbtest.Stock(t, f.db, b.ID))

	snap, err := f.carts.Snapshot(context.Background(), cartControllers.UserIdentity("u1"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, b.ID, snap.Items[0].ProductID)
	assert.Equal(t, 2, snap.Items[0].Quantity)
}

func TestCreateOrderRejectsArchivedProduct(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "10.00", 5)
	f.addToCart(t, "u1", p.ID, 2)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("is_active", false).Error)

	_, err := f.svc.CreateOrder(context.Background(), "u1", validCheckout(models.PaymentMethodCOD))

	assert.ErrorIs(t, err, models.ErrProductUnavailable)
	assert.Equal(t, 5, dbtest.Stock(t, f.db, p.ID))
	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreateOrderLocksProductsInIDOrder(t *testing.T) {
	f := newFixture(t)
	first := dbtest.CreateProduct(t, f.db, "A-1", "1.00", 5)
	second := dbtest.CreateProduct(t, f.db, "B-1", "1.00", 5)
	third := dbtest.CreateProduct(t, f.db, "C-1", "1.00", 5)
	f.addToCart(t, "u1", second.ID, 1)
	f.addToCart(t, "u1", first.ID, 1)
	f.addToCart(t, "u1", third.ID, 1)

	snap, err := f.carts.Snapshot(context.Background(), cartControllers.UserIdentity("u1"))
	require.NoError(t, err)
	require.Len(t, snap.Items, 3)

	var locked []uint
	for _, line := range byProductID(snap.Items) {
		locked = append(locked, line.ProductID)
	}
	assert.Equal(t, []uint{first.ID, second.ID, third.ID}, locked)
	assert.Equal(t, third.ID, snap.Items[0].ProductID, "snapshot keeps newest-first order")

	order := f.checkout(t, "u1")
	require.Len(t, order.Items, 3)
	assert.Equal(t, third.ID, order.Items[0].ProductID)
}

package orderControllers

import (
	"context"
	"testing"

	"github.com/junaidrashid-git/storefront-api/database/dbtest"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusProcessing, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusShipped, false},
		{models.OrderStatusProcessing, models.OrderStatusShipped, true},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{models.OrderStatusDelivered, models.OrderStatusRefunded, true},
		{models.OrderStatusCancelled, models.OrderStatusPending, false},
		{models.OrderStatusRefunded, models.OrderStatusProcessing, false},
		{models.OrderStatusProcessing, models.OrderStatusProcessing, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestMapOrderStatus(t *testing.T) {
	s, err := mapOrderStatus(" Shipped ")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, s)

	_, err = mapOrderStatus("lost")
	assert.ErrorIs(t, err, models.ErrUnknownStatus)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "100.00", 5)
	f.addToCart(t, "u1", p.ID, 3)
	order := f.checkout(t, "u1")
	require.Equal(t, 2, dbtest.Stock(t, f.db, p.ID))

	cancelled, err := f.svc.Cancel(context.Background(), "u1", order.OrderNumber)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentStatusCancelled, cancelled.PaymentStatus)
	assert.Equal(t, 5, dbtest.Stock(t, f.db, p.ID))

	stored, err := FindOrder(f.db, order.OrderNumber, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, []events.EventType{events.OrderCreated, events.OrderCancelled}, f.events.types())

	// A second cancel is illegal and must not restock twice.
	_, err = f.svc.Cancel(context.Background(), "u1", order.OrderNumber)
	assert.ErrorIs(t, err, models.ErrIllegalTransition)
	assert.Equal(t, 5, dbtest.Stock(t, f.db, p.ID))
}

func TestCancelShippedOrderIsRejected(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "100.00", 5)
	f.addToCart(t, "u1", p.ID, 2)
	order := f.checkout(t, "u1")

	_, err := f.svc.SetStatusByStaff(context.Background(), order.OrderNumber, "processing")
	require.NoError(t, err)
	_, err = f.svc.SetStatusByStaff(context.Background(), order.OrderNumber, "shipped")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), "u1", order.OrderNumber)

	var terr *models.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.OrderStatusShipped, terr.From)
	assert.Equal(t, 3, dbtest.Stock(t, f.db, p.ID))

	stored, err := FindOrder(f.db, order.OrderNumber, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, stored.Status)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
}

func TestCancelOtherUsersOrder(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "100.00", 5)
	f.addToCart(t, "u1", p.ID, 1)
	order := f.checkout(t, "u1")

	_, err := f.svc.Cancel(context.Background(), "u2", order.OrderNumber)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
	assert.Equal(t, 4, dbtest.Stock(t, f.db, p.ID))
}

func TestSetStatusByStaffFlagsOverrides(t *testing.T) {
	f := newFixture(t)
	p := dbtest.CreateProduct(t, f.db, "MUG-1", "100.00", 5)
	f.addToCart(t, "u1", p.ID, 2)
	order := f.checkout(t, "u1")

	change, err := f.svc.SetStatusByStaff(context.Background(), order.OrderNumber, "processing")
	require.NoError(t, err)
	assert.False(t, change.Override)
	assert.Equal(t, models.OrderStatusPending, change.Previous)

	change, err = f.svc.SetStatusByStaff(context.Background(), order.OrderNumber, "delivered")
	require.NoError(t, err)
	assert.True(t, change.Override)
	assert.Equal(t, models.OrderStatusDelivered, change.Order.Status)

	// Staff cancellation is a plain status write: no restock.
	change, err = f.svc.SetStatusByStaff(context.Background(), order.OrderNumber, "cancelled")
	require.NoError(t, err)
	assert.True(t, change.Override)
	assert.Equal(t, 3, dbtest.Stock(t, f.db, p.ID))

	stored, err := FindOrder(f.db, order.OrderNumber, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)

	assert.Contains(t, f.events.types(), events.OrderStatusOverride)
}

func TestSetStatusByStaffRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetStatusByStaff(context.Background(), "ORD-MISSING000", "lost")
	assert.ErrorIs(t, err, models.ErrUnknownStatus)

	_, err = f.svc.SetStatusByStaff(context.Background(), "ORD-MISSING000", "shipped")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestRestoreInventorySkipsUntracked(t *testing.T) {
	f := newFixture(t)
	tracked := dbtest.CreateProduct(t, f.db, "T", "1.00", 1)
	untracked := dbtest.CreateProduct(t, f.db, "U", "1.00", 0)
	require.NoError(t, f.db.Model(&untracked).Update("track_quantity", false).Error)

	err := RestoreInventory(f.db, []models.OrderItem{
		{ProductID: tracked.ID, Quantity: 2},
		{ProductID: untracked.ID, Quantity: 2},
		{ProductID: 9999, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, dbtest.Stock(t, f.db, tracked.ID))
	assert.Equal(t, 0, dbtest.Stock(t, f.db, untracked.ID))
}

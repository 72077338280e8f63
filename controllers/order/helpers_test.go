package orderControllers

import (
	"context"
	"sync"
	"testing"

	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	"github.com/junaidrashid-git/storefront-api/database/dbtest"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	carts  *cartControllers.Store
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	pub := &recordingPublisher{}
	return &fixture{
		db:     db,
		svc:    NewService(db, NewNumberGenerator(5), pub, zap.NewNop()),
		carts:  cartControllers.NewStore(db, zap.NewNop()),
		events: pub,
	}
}

func (f *fixture) addToCart(t *testing.T, userID string, productID uint, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), cartControllers.UserIdentity(userID), productID, qty)
	require.NoError(t, err)
}

func (f *fixture) checkout(t *testing.T, userID string) *models.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), userID, validCheckout(models.PaymentMethodCOD))
	require.NoError(t, err)
	return order
}

func validCheckout(method models.PaymentMethod) CheckoutRequest {
	return CheckoutRequest{
		Shipping: models.ShippingInfo{
			FullName:     "Ada Lovelace",
			Email:        "ada@example.com",
			Phone:        "9800000000",
			AddressLine1: "1 Durbar Marg",
			City:         "Kathmandu",
			State:        "Bagmati",
			PostalCode:   "44600",
			Country:      "Nepal",
		},
		PaymentMethod: method,
		Notes:         "  leave at the door ",
	}
}

package gatewayControllers

import (
	"context"
	"strings"
	"testing"

	cartControllers "github.com/junaidrashid-git/storefront-api/controllers/cart"
	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/database/dbtest"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "8gBm/:&EnhH.1/q"

type fakeVerifier struct {
	result *VerificationResult
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(context.Context, decimal.Decimal, string) (*VerificationResult, error) {
	f.calls++
	return f.result, f.err
}

type fixture struct {
	db       *gorm.DB
	adapter  *Adapter
	verifier *fakeVerifier
	product  models.Product
	order    *models.Order
}

// newFixture places a 3 x 100.00 order for u1 against a product with 5 in stock.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	log := zap.NewNop()

	product := dbtest.CreateProduct(t, db, "MUG-1", "100.00", 5)
	carts := cartControllers.NewStore(db, log)
	_, err := carts.AddItem(context.Background(), cartControllers.UserIdentity("u1"), product.ID, 3)
	require.NoError(t, err)

	orders := orderControllers.NewService(db, orderControllers.NewNumberGenerator(5), nil, log)
	order, err := orders.CreateOrder(context.Background(), "u1", orderControllers.CheckoutRequest{
		Shipping: models.ShippingInfo{
			FullName: "Ada Lovelace", Email: "ada@example.com", Phone: "9800000000",
			AddressLine1: "1 Durbar Marg", City: "Kathmandu", State: "Bagmati",
			PostalCode: "44600", Country: "Nepal",
		},
		PaymentMethod: models.PaymentMethodGateway,
	})
	require.NoError(t, err)

	verifier := &fakeVerifier{}
	adapter := NewAdapter(db, Config{
		FormURL:     "https://gateway.test/form",
		ProductCode: "EPAYTEST",
		SecretKey:   testSecret,
		SuccessURL:  "https://shop.test/payment/gateway/success",
		FailureURL:  "https://shop.test/payment/gateway/failure",
		Currency:    "NPR",
	}, verifier, nil, log)

	return &fixture{db: db, adapter: adapter, verifier: verifier, product: product, order: order}
}

func (f *fixture) reload(t *testing.T) *models.Order {
	t.Helper()
	order, err := orderControllers.FindOrder(f.db, f.order.OrderNumber, "")
	require.NoError(t, err)
	return order
}

func TestBuildPayloadBreakdown(t *testing.T) {
	f := newFixture(t)

	p := f.adapter.BuildPayload(f.order)

	assert.Equal(t, "300.00", p.Amount)
	assert.Equal(t, "30.00", p.TaxAmount)
	assert.Equal(t, "0.00", p.ProductDeliveryCharge)
	assert.Equal(t, "0.00", p.ProductServiceCharge)
	assert.Equal(t, "330.00", p.TotalAmount)
	assert.Equal(t, f.order.OrderNumber, p.TransactionUUID)
	assert.Equal(t, "total_amount,transaction_uuid,product_code", p.SignedFieldNames)

	sum := decimal.RequireFromString(p.Amount).
		Add(decimal.RequireFromString(p.TaxAmount)).
		Add(decimal.RequireFromString(p.ProductServiceCharge)).
		Add(decimal.RequireFromString(p.ProductDeliveryCharge))
	assert.True(t, sum.Equal(f.order.TotalAmount))

	fields := map[string]string{
		"total_amount":     p.TotalAmount,
		"transaction_uuid": p.TransactionUUID,
		"product_code":     p.ProductCode,
	}
	assert.Equal(t,
		"total_amount=330.00,transaction_uuid="+f.order.OrderNumber+",product_code=EPAYTEST",
		SigningMessage(fields, SignedFieldNames))
	assert.True(t, VerifySignature(testSecret, fields, SignedFieldNames, p.Signature))
}

func TestInitiateCreatesOnePendingPayment(t *testing.T) {
	f := newFixture(t)

	_, err := f.adapter.Initiate(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)
	_, err = f.adapter.Initiate(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)

	var payments []models.Payment
	require.NoError(t, f.db.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentRecordPending, payments[0].Status)
	assert.Equal(t, models.PaymentMethodGateway, payments[0].Method)
	assert.Equal(t, "NPR", payments[0].Currency)
	assert.True(t, payments[0].Amount.Equal(decimal.RequireFromString("330")))

	_, err = f.adapter.Initiate(context.Background(), "u2", f.order.OrderNumber)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestConfirmCOD(t *testing.T) {
	f := newFixture(t)

	order, err := f.adapter.ConfirmCOD(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)

	stored := f.reload(t)
	assert.Equal(t, models.OrderStatusProcessing, stored.Status)
	assert.Equal(t, models.PaymentMethodCOD, stored.PaymentMethod)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, models.PaymentRecordPending, stored.Payment.Status)
	assert.Equal(t, models.PaymentMethodCOD, stored.Payment.Method)
	assert.Equal(t, 2, dbtest.Stock(t, f.db, f.product.ID))
}

func TestVerifySuccessSettlesOnce(t *testing.T) {
	f := newFixture(t)
	f.verifier.result = &VerificationResult{Status: "COMPLETE", Success: true, Raw: `{"status":"COMPLETE"}`}
	_, err := f.adapter.Initiate(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)

	order, err := f.adapter.VerifySuccess(context.Background(), "u1", f.order.OrderNumber, "REF-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	require.NotNil(t, order.Payment)
	assert.Equal(t, models.PaymentRecordSucceeded, order.Payment.Status)
	require.NotNil(t, order.Payment.ReferenceID)
	assert.Equal(t, "REF-1", *order.Payment.ReferenceID)
	assert.NotNil(t, order.Payment.PaidAt)

	// Replayed callbacks do not reach the gateway again.
	again, err := f.adapter.VerifySuccess(context.Background(), "u1", f.order.OrderNumber, "REF-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, again.PaymentStatus)
	assert.Equal(t, 1, f.verifier.calls)
	assert.Equal(t, 2, dbtest.Stock(t, f.db, f.product.ID))
}

func TestVerifySuccessRejectedRestocks(t *testing.T) {
	f := newFixture(t)
	f.verifier.result = &VerificationResult{Status: "PENDING", Raw: `{"status":"PENDING"}`}

	order, err := f.adapter.VerifySuccess(context.Background(), "u1", f.order.OrderNumber, "REF-1")
	assert.ErrorIs(t, err, models.ErrPaymentVerificationFailed)
	require.NotNil(t, order)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)
	require.NotNil(t, order.Payment)
	assert.Equal(t, models.PaymentRecordFailed, order.Payment.Status)
	assert.True(t, strings.HasPrefix(order.Payment.FailureReason, "Verification failed: "))
	assert.Contains(t, order.Payment.FailureReason, "PENDING")
	assert.Equal(t, 5, dbtest.Stock(t, f.db, f.product.ID))

	_, err = f.adapter.VerifySuccess(context.Background(), "u1", f.order.OrderNumber, "REF-1")
	assert.ErrorIs(t, err, models.ErrPaymentVerificationFailed)
	assert.Equal(t, 1, f.verifier.calls)
	assert.Equal(t, 5, dbtest.Stock(t, f.db, f.product.ID))
}

func TestVerifySuccessUnreachableLeavesOrder(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = models.ErrVerificationUnreachable
	_, err := f.adapter.Initiate(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)

	_, err = f.adapter.VerifySuccess(context.Background(), "u1", f.order.OrderNumber, "REF-1")
	assert.ErrorIs(t, err, models.ErrVerificationUnreachable)

	stored := f.reload(t)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, models.PaymentRecordPending, stored.Payment.Status)
	assert.Equal(t, 2, dbtest.Stock(t, f.db, f.product.ID))
}

func TestVerifySuccessBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.adapter.VerifySuccess(context.Background(), "u1", f.order.OrderNumber, "")
	assert.ErrorIs(t, err, models.ErrMalformedCallback)

	_, err = f.adapter.VerifySuccess(context.Background(), "u1", "ORD-NOPE000000", "REF-1")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	_, err = f.adapter.VerifySuccess(context.Background(), "u2", f.order.OrderNumber, "REF-1")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	assert.Zero(t, f.verifier.calls)
}

func TestHandleFailureCancelsAndRestocks(t *testing.T) {
	f := newFixture(t)

	order, err := f.adapter.HandleFailure(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Equal(t, models.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, 5, dbtest.Stock(t, f.db, f.product.ID))

	stored := f.reload(t)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, models.PaymentRecordFailed, stored.Payment.Status)
	assert.Equal(t, "Payment cancelled by user or failed", stored.Payment.FailureReason)

	// A repeated failure callback must not restock twice.
	_, err = f.adapter.HandleFailure(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, 5, dbtest.Stock(t, f.db, f.product.ID))

	_, err = f.adapter.HandleFailure(context.Background(), "u1", "")
	assert.ErrorIs(t, err, models.ErrMalformedCallback)
}

func TestHandleFailureAfterSuccessIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.verifier.result = &VerificationResult{Status: "COMPLETE", Success: true}
	_, err := f.adapter.VerifySuccess(context.Background(), "u1", f.order.OrderNumber, "REF-1")
	require.NoError(t, err)

	order, err := f.adapter.HandleFailure(context.Background(), "u1", f.order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, 2, dbtest.Stock(t, f.db, f.product.ID))
}

package gatewayControllers

import (
	"context"
	"fmt"
	"strings"
	"time"

	orderControllers "github.com/junaidrashid-git/storefront-api/controllers/order"
	"github.com/junaidrashid-git/storefront-api/events"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const failureReasonCancelled = "Payment cancelled by user or failed"

// Config carries the merchant settings of the hosted payment gateway.
type Config struct {
	FormURL     string
	ProductCode string
	SecretKey   string
	SuccessURL  string
	FailureURL  string
	Currency    string
}

// InitiationPayload is the signed form the buyer's browser posts to the gateway.
type InitiationPayload struct {
	FormURL               string `json:"form_url"`
	Amount                string `json:"amount"`
	TaxAmount             string `json:"tax_amount"`
	TotalAmount           string `json:"total_amount"`
	TransactionUUID       string `json:"transaction_uuid"`
	ProductCode           string `json:"product_code"`
	ProductServiceCharge  string `json:"product_service_charge"`
	ProductDeliveryCharge string `json:"product_delivery_charge"`
	SuccessURL            string `json:"success_url"`
	FailureURL            string `json:"failure_url"`
	SignedFieldNames      string `json:"signed_field_names"`
	Signature             string `json:"signature"`
}

// Adapter settles orders against the hosted payment gateway and cash on delivery.
type Adapter struct {
	db       *gorm.DB
	cfg      Config
	verifier Verifier
	events   events.Publisher
	log      *zap.Logger
}

func NewAdapter(db *gorm.DB, cfg Config, verifier Verifier, pub events.Publisher, log *zap.Logger) *Adapter {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Adapter{db: db, cfg: cfg, verifier: verifier, events: pub, log: log}
}

// ConfirmCOD records a pending cash payment and moves the order to processing.
func (a *Adapter) ConfirmCOD(ctx context.Context, userID, orderNumber string) (*models.Order, error) {
	var order *models.Order
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = orderControllers.LockOrder(tx, orderNumber, userID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentStatusCompleted {
			return models.ErrAlreadyPaid
		}
		if !orderControllers.CanCancel(order.Status) {
			return &models.TransitionError{From: order.Status, To: models.OrderStatusProcessing}
		}

		payment, err := a.paymentFor(tx, order, models.PaymentMethodCOD)
		if err != nil {
			return err
		}
		order.Payment = payment

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("payment_method", models.PaymentMethodCOD).Error; err != nil {
			return fmt.Errorf("set payment method: %w", err)
		}
		order.PaymentMethod = models.PaymentMethodCOD

		return orderControllers.SetStatus(tx, order, models.OrderStatusProcessing, models.PaymentStatusPending)
	})
	if err != nil {
		return nil, err
	}

	a.log.Info("cash on delivery confirmed", zap.String("order_number", orderNumber))
	events.Emit(ctx, a.events, a.log, events.NewOrderEvent(events.OrderCODConfirmed, order))
	return order, nil
}

// Initiate records a pending gateway payment and returns the signed form.
func (a *Adapter) Initiate(ctx context.Context, userID, orderNumber string) (*InitiationPayload, error) {
	var order *models.Order
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = orderControllers.LockOrder(tx, orderNumber, userID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentStatusCompleted {
			return models.ErrAlreadyPaid
		}
		if order.Status != models.OrderStatusPending {
			return &models.TransitionError{From: order.Status, To: models.OrderStatusProcessing}
		}

		if _, err := a.paymentFor(tx, order, models.PaymentMethodGateway); err != nil {
			return err
		}
		if order.PaymentMethod != models.PaymentMethodGateway {
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
				Update("payment_method", models.PaymentMethodGateway).Error; err != nil {
				return fmt.Errorf("set payment method: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload := a.BuildPayload(order)
	a.log.Info("gateway payment initiated",
		zap.String("order_number", orderNumber),
		zap.String("total_amount", payload.TotalAmount))
	return payload, nil
}

// BuildPayload splits the order total into the gateway's amount fields and
// signs total_amount, transaction_uuid and product_code.
func (a *Adapter) BuildPayload(order *models.Order) *InitiationPayload {
	tax := order.TaxAmount.Round(2)
	delivery := order.ShippingCost.Round(2)
	service := decimal.Zero
	amount := order.TotalAmount.Sub(tax).Sub(delivery).Sub(service).Round(2)
	total := amount.Add(tax).Add(service).Add(delivery)

	p := &InitiationPayload{
		FormURL:               a.cfg.FormURL,
		Amount:                amount.StringFixed(2),
		TaxAmount:             tax.StringFixed(2),
		TotalAmount:           total.StringFixed(2),
		TransactionUUID:       order.OrderNumber,
		ProductCode:           a.cfg.ProductCode,
		ProductServiceCharge:  service.StringFixed(2),
		ProductDeliveryCharge: delivery.StringFixed(2),
		SuccessURL:            a.cfg.SuccessURL,
		FailureURL:            a.cfg.FailureURL,
	}

	fields := map[string]string{
		"total_amount":     p.TotalAmount,
		"transaction_uuid": p.TransactionUUID,
		"product_code":     p.ProductCode,
	}
	p.SignedFieldNames = strings.Join(SignedFieldNames, ",")
	p.Signature = Sign(a.cfg.SecretKey, fields, SignedFieldNames)
	return p
}

// VerifySuccess settles a success callback. An unreachable gateway leaves the
// order untouched. A negative verdict marks the payment failed, cancels the
// order and restocks it, then returns ErrPaymentVerificationFailed with the
// updated order.
func (a *Adapter) VerifySuccess(ctx context.Context, userID, transactionUUID, referenceID string) (*models.Order, error) {
	if transactionUUID == "" || referenceID == "" {
		return nil, models.ErrMalformedCallback
	}

	order, err := orderControllers.FindOrder(a.db.WithContext(ctx), transactionUUID, userID)
	if err != nil {
		return nil, err
	}
	if settled, err := settledOutcome(order); settled {
		return order, err
	}

	result, err := a.verifier.Verify(ctx, order.TotalAmount, order.OrderNumber)
	if err != nil {
		a.log.Warn("payment verification unreachable",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		return nil, err
	}

	var outcome error
	var emitted events.EventType
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := orderControllers.LockOrder(tx, transactionUUID, userID)
		if err != nil {
			return err
		}
		order = locked
		// A concurrent callback may have settled it while we were verifying.
		if settled, err := settledOutcome(order); settled {
			outcome = err
			return nil
		}

		payment, err := a.paymentFor(tx, order, models.PaymentMethodGateway)
		if err != nil {
			return err
		}

		if result.Success {
			if err := tx.Model(payment).Updates(map[string]interface{}{
				"status":         models.PaymentRecordSucceeded,
				"reference_id":   referenceID,
				"transaction_id": transactionUUID,
				"paid_at":        time.Now(),
				"failure_reason": "",
			}).Error; err != nil {
				return fmt.Errorf("mark payment succeeded: %w", err)
			}
			emitted = events.OrderPaid
			return orderControllers.SetStatus(tx, order, models.OrderStatusProcessing, models.PaymentStatusCompleted)
		}

		if err := a.failPayment(tx, order, payment, "Verification failed: "+result.Raw); err != nil {
			return err
		}
		emitted = events.OrderPaymentFailed
		outcome = models.ErrPaymentVerificationFailed
		return nil
	})
	if err != nil {
		return nil, err
	}

	fresh, err := orderControllers.FindOrder(a.db.WithContext(ctx), transactionUUID, userID)
	if err == nil {
		order = fresh
	}

	switch emitted {
	case events.OrderPaid:
		a.log.Info("gateway payment verified",
			zap.String("order_number", order.OrderNumber),
			zap.String("reference_id", referenceID))
	case events.OrderPaymentFailed:
		a.log.Warn("gateway payment rejected",
			zap.String("order_number", order.OrderNumber),
			zap.String("gateway_status", result.Status))
	default:
		return order, outcome
	}
	events.Emit(ctx, a.events, a.log, events.NewOrderEvent(emitted, order))
	return order, outcome
}

// HandleFailure settles a failure callback: payment failed, order cancelled
// and stock restored. Already settled orders are returned unchanged.
func (a *Adapter) HandleFailure(ctx context.Context, userID, transactionUUID string) (*models.Order, error) {
	if transactionUUID == "" {
		return nil, models.ErrMalformedCallback
	}

	var order *models.Order
	changed := false
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = orderControllers.LockOrder(tx, transactionUUID, userID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == models.PaymentStatusCompleted || !orderControllers.CanCancel(order.Status) {
			return nil
		}

		payment, err := a.paymentFor(tx, order, models.PaymentMethodGateway)
		if err != nil {
			return err
		}
		changed = true
		return a.failPayment(tx, order, payment, failureReasonCancelled)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		a.log.Info("gateway payment cancelled", zap.String("order_number", order.OrderNumber))
		events.Emit(ctx, a.events, a.log, events.NewOrderEvent(events.OrderPaymentFailed, order))
	}
	return order, nil
}

func (a *Adapter) failPayment(tx *gorm.DB, order *models.Order, payment *models.Payment, reason string) error {
	if err := tx.Model(payment).Updates(map[string]interface{}{
		"status":         models.PaymentRecordFailed,
		"failure_reason": reason,
	}).Error; err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if err := orderControllers.RestoreInventory(tx, order.Items); err != nil {
		return err
	}
	return orderControllers.SetStatus(tx, order, models.OrderStatusCancelled, models.PaymentStatusFailed)
}

// paymentFor returns the order's payment record, creating a pending one.
func (a *Adapter) paymentFor(tx *gorm.DB, order *models.Order, method models.PaymentMethod) (*models.Payment, error) {
	var payment models.Payment
	if err := tx.Where("order_id = ?", order.ID).Attrs(models.Payment{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Method:   method,
		Amount:   order.TotalAmount,
		Currency: a.cfg.Currency,
		Status:   models.PaymentRecordPending,
	}).FirstOrCreate(&payment).Error; err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if payment.Method != method && payment.Status == models.PaymentRecordPending {
		if err := tx.Model(&payment).Update("payment_method", method).Error; err != nil {
			return nil, fmt.Errorf("switch payment method: %w", err)
		}
	}
	return &payment, nil
}

// settledOutcome reports whether a callback for order needs no more work,
// and the error to hand back if so.
func settledOutcome(order *models.Order) (bool, error) {
	switch {
	case order.PaymentStatus == models.PaymentStatusCompleted:
		return true, nil
	case order.PaymentStatus == models.PaymentStatusFailed:
		return true, models.ErrPaymentVerificationFailed
	case order.Status != models.OrderStatusPending && order.Status != models.OrderStatusProcessing:
		return true, &models.TransitionError{From: order.Status, To: models.OrderStatusProcessing}
	default:
		return false, nil
	}
}

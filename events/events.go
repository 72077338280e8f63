package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EventType string

const (
	OrderCreated        EventType = "order.created"
	OrderCODConfirmed   EventType = "order.cod_confirmed"
	OrderPaid           EventType = "order.paid"
	OrderPaymentFailed  EventType = "order.payment_failed"
	OrderCancelled      EventType = "order.cancelled"
	OrderStatusChanged  EventType = "order.status_changed"
	OrderStatusOverride EventType = "order.status_override"
)

// OrderEvent is published after an order change has committed.
type OrderEvent struct {
	EventID       string               `json:"event_id"`
	Type          EventType            `json:"type"`
	OrderNumber   string               `json:"order_number"`
	UserID        string               `json:"user_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	Timestamp     time.Time            `json:"timestamp"`
}

func NewOrderEvent(t EventType, o *models.Order) OrderEvent {
	return OrderEvent{
		EventID:       uuid.NewString(),
		Type:          t,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		TotalAmount:   o.TotalAmount,
		Timestamp:     time.Now().UTC(),
	}
}

// Publisher delivers order events. Callers log failures and move on.
type Publisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e OrderEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, OrderEvent) error { return nil }

// Emit publishes e and logs a delivery failure instead of returning it.
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, e OrderEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		log.Warn("order event not delivered",
			zap.String("type", string(e.Type)),
			zap.String("order_number", e.OrderNumber),
			zap.Error(err))
	}
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordSucceeded PaymentRecordStatus = "succeeded"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
)

// Payment is the single payment attempt record of an order.
type Payment struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	OrderID       uint                `gorm:"uniqueIndex;not null" json:"order_id"`
	UserID        string              `gorm:"size:128;index;not null" json:"user_id"`
	Method        PaymentMethod       `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	Amount        decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency      string              `gorm:"size:3;not null" json:"currency"`
	Status        PaymentRecordStatus `gorm:"type:varchar(20);not null" json:"status"`
	ReferenceID   *string             `gorm:"size:100" json:"gateway_reference_id,omitempty"`
	TransactionID *string             `gorm:"size:100" json:"gateway_transaction_id,omitempty"`
	FailureReason string              `gorm:"type:text" json:"failure_reason,omitempty"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

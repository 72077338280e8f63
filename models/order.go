package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	// Order statuses
	OrderStatusPending    OrderStatus = "pending"    // Placed, awaiting payment or confirmation
	OrderStatusProcessing OrderStatus = "processing" // Paid or COD confirmed
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"

	// Payment statuses
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"

	PaymentMethodCOD     PaymentMethod = "cash_on_delivery"
	PaymentMethodGateway PaymentMethod = "external_gateway"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodGateway
}

// ShippingInfo is embedded into orders as shipping_* columns.
type ShippingInfo struct {
	FullName     string `gorm:"size:200;not null" json:"full_name" validate:"required,max=200"`
	Email        string `gorm:"size:254;not null" json:"email" validate:"required,email"`
	Phone        string `gorm:"size:20;not null" json:"phone" validate:"required,max=20"`
	AddressLine1 string `gorm:"size:255;not null" json:"address_line_1" validate:"required,max=255"`
	AddressLine2 string `gorm:"size:255" json:"address_line_2" validate:"max=255"`
	City         string `gorm:"size:100;not null" json:"city" validate:"required,max=100"`
	State        string `gorm:"size:100;not null" json:"state" validate:"required,max=100"`
	PostalCode   string `gorm:"size:20;not null" json:"postal_code" validate:"required,max=20"`
	Country      string `gorm:"size:100;not null" json:"country" validate:"required,max=100"`
}

type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderNumber   string          `gorm:"size:50;uniqueIndex;not null" json:"order_number"`
	UserID        string          `gorm:"size:128;index;not null" json:"user_id"`
	Status        OrderStatus     `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	Shipping      ShippingInfo    `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	TaxAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	ShippingCost  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shipping_cost"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Notes         string          `gorm:"type:text" json:"order_notes"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payment       *Payment        `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TotalsBalanced reports whether total = subtotal + tax + shipping.
func (o Order) TotalsBalanced() bool {
	return o.Subtotal.Add(o.TaxAmount).Add(o.ShippingCost).Equal(o.TotalAmount)
}

// BeforeUpdate rejects any write that touches the money columns after creation.
func (o *Order) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("Subtotal", "TaxAmount", "ShippingCost", "TotalAmount") {
		return ErrImmutableOrder
	}
	return nil
}

// OrderItem is a frozen copy of a product line at checkout time.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"index;not null" json:"order_id"`
	ProductID    uint            `gorm:"index;not null" json:"product_id"`
	ProductName  string          `gorm:"size:200;not null" json:"product_name"`
	ProductSKU   string          `gorm:"column:product_sku;size:50;not null" json:"product_sku"`
	ProductPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"product_price"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *OrderItem) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableOrderItem
}

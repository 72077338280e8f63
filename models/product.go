package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string              `gorm:"size:200;not null" json:"name"`
	SKU               string              `gorm:"column:sku;size:50;uniqueIndex;not null" json:"sku"`
	Description       string              `gorm:"type:text" json:"description"`
	Price             decimal.Decimal     `gorm:"type:numeric(12,2);not null" json:"price"`
	ComparePrice      decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"compare_price"`
	Quantity          int                 `gorm:"not null" json:"quantity"`
	TrackQuantity     bool                `gorm:"not null" json:"track_quantity"`
	LowStockThreshold int                 `gorm:"not null" json:"low_stock_threshold"`
	IsActive          bool                `gorm:"not null;index" json:"is_active"`
	IsFeatured        bool                `gorm:"not null;default:false;index" json:"is_featured"`
	CategoryID        *uint               `gorm:"index" json:"category_id"`
	Category          *Category           `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	BrandID           *uint               `gorm:"index" json:"brand_id"`
	Brand             *Brand              `gorm:"constraint:OnDelete:SET NULL" json:"brand,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// HasStock reports whether qty units can be sold. Untracked products always can.
func (p Product) HasStock(qty int) bool {
	return !p.TrackQuantity || p.Quantity >= qty
}

func (p Product) IsLowStock() bool {
	return p.TrackQuantity && p.Quantity <= p.LowStockThreshold
}

func (p Product) IsOutOfStock() bool {
	return p.TrackQuantity && p.Quantity <= 0
}

package models

import "time"

// Cart belongs to exactly one identity: a registered user or a guest session.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     *string    `gorm:"size:128;uniqueIndex" json:"user_id,omitempty"`
	SessionKey *string    `gorm:"size:128;uniqueIndex" json:"session_key,omitempty"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE" json:"product"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

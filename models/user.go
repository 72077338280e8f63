package models

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	Email     string    `gorm:"size:254" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Name      string    `gorm:"size:200" json:"name"`
	Address   Address   `gorm:"embedded" json:"address"` // Embeds address fields directly
	IsStaff   bool      `gorm:"not null" json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Address model embedded in User
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

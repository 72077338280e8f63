package models

import "time"

// GuestUser backs the session key of an anonymous shopper.
type GuestUser struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (g GuestUser) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

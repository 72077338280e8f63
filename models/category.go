package models

import (
	"strings"
	"time"
	"unicode"
)

// Grouping is the shared shape of categories and brands.
type Grouping struct {
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null;index" json:"is_active"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Grouping  `gorm:"embedded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "product_categories" }

func (c *Category) Group() *Grouping { return &c.Grouping }
func (c *Category) GroupID() uint    { return c.ID }

type Brand struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Grouping  `gorm:"embedded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Brand) Group() *Grouping { return &b.Grouping }
func (b *Brand) GroupID() uint    { return b.ID }

// Slugify lowercases s and joins its runs of letters and digits with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

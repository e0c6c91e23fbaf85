package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing with its live stock counter.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Category    string          `gorm:"column:category;not null;default:'';index:products_category_idx"`
	ImageURL    *string         `gorm:"column:image_url"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	Available   bool            `gorm:"column:available;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime;index:products_created_at_idx"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsPurchasable reports whether the product can be added to a cart.
func (p Product) IsPurchasable() bool {
	return p.Available && p.Stock > 0
}

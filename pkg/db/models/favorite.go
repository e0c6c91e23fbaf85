package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite links a customer to a liked product.
type Favorite struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID string    `gorm:"column:customer_id;not null;index:favorites_customer_id_idx;uniqueIndex:favorites_customer_product_key"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:favorites_customer_product_key"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (f *Favorite) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Promotion is a time-boxed percentage discount over an ordered set of products.
type Promotion struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Title       string             `gorm:"column:title;not null"`
	Description string             `gorm:"column:description;not null;default:''"`
	Discount    int                `gorm:"column:discount;not null"`
	StartDate   time.Time          `gorm:"column:start_date;not null"`
	EndDate     time.Time          `gorm:"column:end_date;not null;index:promotions_end_date_idx"`
	Active      bool               `gorm:"column:active;not null"`
	IsDeleted   bool               `gorm:"column:is_deleted;not null;default:false"`
	DeletedAt   *time.Time         `gorm:"column:deleted_at"`
	Products    []PromotionProduct `gorm:"foreignKey:PromotionID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (p *Promotion) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PromotionProduct links a promotion to one product, keeping list order.
type PromotionProduct struct {
	PromotionID uuid.UUID `gorm:"column:promotion_id;type:uuid;primaryKey"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey;index:promotion_products_product_id_idx"`
	Position    int       `gorm:"column:position;not null;default:0"`
	Product     *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

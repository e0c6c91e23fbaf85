package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the persisted result of a cart checkout.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      string            `gorm:"column:customer_id;not null;index:orders_customer_id_idx"`
	CartID          string            `gorm:"column:cart_id;not null"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	CustomerEmail   string            `gorm:"column:customer_email;not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index:orders_status_idx"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount        decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Items           []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CanceledAt      *time.Time        `gorm:"column:canceled_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime;index:orders_created_at_idx"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLineItem freezes one cart line at checkout time.
type OrderLineItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_line_items_order_id_idx"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name            string          `gorm:"column:name;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountPercent int             `gorm:"column:discount_percent;not null;default:0"`
	FinalUnitPrice  decimal.Decimal `gorm:"column:final_unit_price;type:numeric(12,2);not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an id when the caller did not.
func (i *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

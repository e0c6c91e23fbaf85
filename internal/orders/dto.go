package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// CheckoutInput carries the shopper details captured at checkout.
type CheckoutInput struct {
	CartID          string
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	ShippingAddress string
}

// ListInput filters order listings.
type ListInput struct {
	CustomerID string
	Status     *enums.OrderStatus
	Pagination pagination.Params
}

// OrderLineDTO is one purchased line.
type OrderLineDTO struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent int             `json:"discount_percent"`
	FinalUnitPrice  decimal.Decimal `json:"final_unit_price"`
	Quantity        int             `json:"quantity"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// OrderDTO represents an order returned to clients.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	CustomerID      string            `json:"customer_id"`
	CartID          string            `json:"cart_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	ShippingAddress string            `json:"shipping_address"`
	Status          enums.OrderStatus `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount"`
	Total           decimal.Decimal   `json:"total"`
	Items           []OrderLineDTO    `json:"items"`
	CanceledAt      *time.Time        `json:"canceled_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func newOrderDTO(o models.Order) OrderDTO {
	items := make([]OrderLineDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderLineDTO{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Name:            item.Name,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			FinalUnitPrice:  item.FinalUnitPrice,
			Quantity:        item.Quantity,
			LineTotal:       item.LineTotal,
		})
	}
	return OrderDTO{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		CartID:          o.CartID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Total:           o.Total,
		Items:           items,
		CanceledAt:      o.CanceledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

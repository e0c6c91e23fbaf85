package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderLine is the slim line representation carried by order events.
type OrderLine struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	FinalUnitPrice decimal.Decimal `json:"final_unit_price"`
}

// OrderCreatedEvent signals a completed checkout.
type OrderCreatedEvent struct {
	OrderID    uuid.UUID       `json:"order_id"`
	CartID     string          `json:"cart_id"`
	CustomerID string          `json:"customer_id"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
	Lines      []OrderLine     `json:"lines"`
}

// OrderStatusChangedEvent is emitted on every admin status transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID string            `json:"customer_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	Restocked  bool              `json:"restocked"`
	ChangedAt  time.Time         `json:"changed_at"`
}

// PromotionExpiredEvent is emitted when the expiry job deactivates a promotion.
type PromotionExpiredEvent struct {
	PromotionID uuid.UUID   `json:"promotion_id"`
	Title       string      `json:"title"`
	EndDate     time.Time   `json:"end_date"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
}

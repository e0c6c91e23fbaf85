package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductSnapshot is the product state captured on a cart line.
type ProductSnapshot struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// Purchasable reports stock > 0 && available.
func (p ProductSnapshot) Purchasable() bool {
	return p.Available && p.Stock > 0
}

// LineItem is one product-quantity pair. UnitPrice is frozen when the line is first added.
type LineItem struct {
	Product   ProductSnapshot `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal is UnitPrice * Quantity.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of line items owned by one shopper.
type Cart struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id,omitempty"`
	Items      []LineItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Line returns the line for productID.
func (c Cart) Line(productID string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.Product.ID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c Cart) clone() Cart {
	out := c
	out.Items = make([]LineItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

// WarningKind classifies a reconcile finding.
type WarningKind string

const (
	WarningOutOfStock        WarningKind = "out_of_stock"
	WarningInsufficientStock WarningKind = "insufficient_stock"
	WarningProductRemoved    WarningKind = "product_removed"
	WarningPriceChanged      WarningKind = "price_changed"
)

// Warning reports a line that no longer satisfies the stock guard or whose product changed.
type Warning struct {
	Kind        WarningKind      `json:"kind"`
	ProductID   string           `json:"product_id"`
	Quantity    int              `json:"quantity"`
	MaxQuantity int              `json:"max_quantity"`
	LivePrice   *decimal.Decimal `json:"live_price,omitempty"`
}

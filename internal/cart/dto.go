package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineView is the API shape of a cart line.
type LineView struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
}

// View is the API shape of a cart with derived totals and reconcile warnings.
type View struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id,omitempty"`
	Items      []LineView      `json:"items"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
	Warnings   []Warning       `json:"warnings"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewView derives the API shape of c.
func NewView(c Cart, warnings []Warning) *View {
	items := make([]LineView, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, LineView{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			ImageURL:  item.Product.ImageURL,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
			Stock:     item.Product.Stock,
			Available: item.Product.Available,
		})
	}
	if warnings == nil {
		warnings = []Warning{}
	}
	return &View{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		Items:      items,
		ItemCount:  ItemCount(c),
		Total:      ComputeTotal(c),
		Warnings:   warnings,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

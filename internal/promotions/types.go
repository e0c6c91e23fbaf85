package promotions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Promotion is the read model the resolver works on.
type Promotion struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Discount    int          `json:"discount"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Active      bool         `json:"active"`
	IsDeleted   bool         `json:"is_deleted"`
	Products    []ProductRef `json:"products"`
}

// EmbeddedProduct is the populated form of a promotion's product reference.
type EmbeddedProduct struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
	ImageURL  string          `json:"image_url,omitempty"`
}

// ProductRef is either a bare product id or an embedded product.
// Exactly one of RawID or Product is meaningful; use ID to read it.
type ProductRef struct {
	RawID   string
	Product *EmbeddedProduct
}

// RawRef builds a reference from a bare id.
func RawRef(id string) ProductRef {
	return ProductRef{RawID: id}
}

// EmbeddedRef builds a reference from a populated product.
func EmbeddedRef(p EmbeddedProduct) ProductRef {
	return ProductRef{Product: &p}
}

// ID returns the referenced product id regardless of the reference form.
func (r ProductRef) ID() string {
	if r.Product != nil {
		return r.Product.ID
	}
	return r.RawID
}

// IsEmbedded reports whether the reference carries a full product.
func (r ProductRef) IsEmbedded() bool {
	return r.Product != nil
}

// MarshalJSON writes a bare string for raw ids and an object for embedded products.
func (r ProductRef) MarshalJSON() ([]byte, error) {
	if r.Product != nil {
		return json.Marshal(r.Product)
	}
	return json.Marshal(r.RawID)
}

// UnmarshalJSON accepts a bare string or an object carrying "id" or "_id".
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = ProductRef{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.RawID)
	case '{':
		var raw struct {
			EmbeddedProduct
			MongoID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		product := raw.EmbeddedProduct
		if product.ID == "" {
			product.ID = raw.MongoID
		}
		r.Product = &product
		return nil
	default:
		return fmt.Errorf("product reference must be a string or object, got %s", data)
	}
}

// PriceQuote is the promotion-adjusted price of one product.
type PriceQuote struct {
	ProductID       string                `json:"product_id,omitempty"`
	OriginalPrice   decimal.Decimal       `json:"original_price"`
	DiscountedPrice decimal.Decimal       `json:"discounted_price"`
	Savings         decimal.Decimal       `json:"savings"`
	DiscountPercent int                   `json:"discount_percent"`
	DaysRemaining   *int                  `json:"days_remaining,omitempty"`
	Status          enums.PromotionStatus `json:"status,omitempty"`
	Message         string                `json:"message,omitempty"`
	Promotion       *PromotionSummary     `json:"promotion,omitempty"`
}

// PromotionSummary identifies the promotion a quote was derived from.
type PromotionSummary struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	EndDate time.Time `json:"end_date"`
}

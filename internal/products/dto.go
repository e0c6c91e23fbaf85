package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID                    `json:"id"`
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Category    string                       `json:"category"`
	ImageURL    *string                      `json:"image_url,omitempty"`
	Price       decimal.Decimal              `json:"price"`
	Stock       int                          `json:"stock"`
	Available   bool                         `json:"available"`
	Purchasable bool                         `json:"purchasable"`
	Pricing     promotions.ProductPricing    `json:"pricing"`
	Promotion   *promotions.PromotionSummary `json:"promotion,omitempty"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Name        string
	Description string
	Category    string
	ImageURL    *string
	Price       decimal.Decimal
	Stock       int
	Available   *bool
}

// UpdateInput holds optional mutation values for a product.
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *string
	ImageURL    *string
	Price       *decimal.Decimal
	Stock       *int
	Available   *bool
}

func newProductDTO(p models.Product, quote promotions.PriceQuote) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Stock:       p.Stock,
		Available:   p.Available,
		Purchasable: p.IsPurchasable(),
		Pricing:     promotions.PricingFromQuote(quote),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if quote.DiscountPercent > 0 {
		dto.Promotion = quote.Promotion
	}
	return dto
}

package promotions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// PromotionDTO is the API shape of a promotion with its derived state.
type PromotionDTO struct {
	Promotion
	Status        enums.PromotionStatus `json:"status"`
	DaysRemaining int                   `json:"days_remaining"`
	Vigent        bool                  `json:"vigent"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// CreateInput holds the validated payload to create a promotion.
type CreateInput struct {
	Title       string
	Description string
	Discount    int
	StartDate   time.Time
	EndDate     time.Time
	Active      *bool
	Products    []ProductRef
}

// UpdateInput holds optional mutation values for a promotion.
type UpdateInput struct {
	Title       *string
	Description *string
	Discount    *int
	StartDate   *time.Time
	EndDate     *time.Time
	Active      *bool
	Products    *[]ProductRef
}

// FromModel converts a persisted promotion into the resolver read model.
// Links whose product was preloaded become embedded references.
func FromModel(m models.Promotion) Promotion {
	refs := make([]ProductRef, 0, len(m.Products))
	for _, link := range m.Products {
		if link.Product != nil {
			refs = append(refs, EmbeddedRef(embeddedFromModel(*link.Product)))
			continue
		}
		refs = append(refs, RawRef(link.ProductID.String()))
	}
	return Promotion{
		ID:          m.ID.String(),
		Title:       m.Title,
		Description: m.Description,
		Discount:    m.Discount,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		Active:      m.Active,
		IsDeleted:   m.IsDeleted,
		Products:    refs,
	}
}

// FromModels converts a slice, keeping order.
func FromModels(rows []models.Promotion) []Promotion {
	out := make([]Promotion, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}

func embeddedFromModel(p models.Product) EmbeddedProduct {
	out := EmbeddedProduct{
		ID:        p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Available: p.Available,
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	return out
}

func newPromotionDTO(m models.Promotion, now time.Time) PromotionDTO {
	p := FromModel(m)
	return PromotionDTO{
		Promotion:     p,
		Status:        Status(p, now),
		DaysRemaining: DaysRemaining(p, now),
		Vigent:        IsPromotionCurrentlyValid(p, now),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// ProductPricing is the catalog-facing price view of a product.
type ProductPricing struct {
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Savings         decimal.Decimal `json:"savings"`
	DiscountPercent int             `json:"discount_percent"`
	PromotionID     string          `json:"promotion_id,omitempty"`
	Message         string          `json:"message,omitempty"`
}

// PricingFromQuote trims a quote down to what product listings show.
func PricingFromQuote(q PriceQuote) ProductPricing {
	out := ProductPricing{
		Price:           q.OriginalPrice,
		DiscountedPrice: q.DiscountedPrice,
		Savings:         q.Savings,
		DiscountPercent: q.DiscountPercent,
		Message:         q.Message,
	}
	if q.Promotion != nil && q.DiscountPercent > 0 {
		out.PromotionID = q.Promotion.ID
	}
	return out
}

package promotions

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const day = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// FindPromotionForProduct returns the first promotion, in list order, whose
// product set references productID. It does not check validity.
func FindPromotionForProduct(productID string, promotions []Promotion) *Promotion {
	if productID == "" || len(promotions) == 0 {
		return nil
	}
	for i := range promotions {
		if references(promotions[i], productID) {
			return &promotions[i]
		}
	}
	return nil
}

// FindVigentPromotionForProduct is FindPromotionForProduct restricted to
// promotions that are valid at now.
func FindVigentPromotionForProduct(productID string, promotions []Promotion, now time.Time) *Promotion {
	if productID == "" || len(promotions) == 0 {
		return nil
	}
	for i := range promotions {
		if IsPromotionCurrentlyValid(promotions[i], now) && references(promotions[i], productID) {
			return &promotions[i]
		}
	}
	return nil
}

func references(p Promotion, productID string) bool {
	for _, ref := range p.Products {
		if ref.ID() == productID {
			return true
		}
	}
	return false
}

// ComputeDiscountedPrice applies a percentage discount and rounds half-up to a
// whole currency unit. A zero price or a non-positive discount returns price
// unchanged.
//
// Discounts above 100 are clamped to 100 instead of following the plain
// round(price*(1-d/100)) formula into a negative price. Stored promotions are
// validated to 1..100, so only direct callers can reach the clamp.
//
// Rounding can land above a fractional price (25.99 at 1% is 26). Quote
// guards against that; this function does not.
func ComputeDiscountedPrice(price decimal.Decimal, discountPercent int) decimal.Decimal {
	if price.IsZero() || discountPercent <= 0 {
		return price
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	factor := decimal.NewFromInt(int64(100 - discountPercent))
	return price.Mul(factor).Div(hundred).Round(0)
}

// IsPromotionCurrentlyValid reports active && !deleted && start <= now <= end.
func IsPromotionCurrentlyValid(p Promotion, now time.Time) bool {
	if !p.Active || p.IsDeleted {
		return false
	}
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// DaysRemaining is ceil((end - now) / 24h). Negative once the promotion ended.
func DaysRemaining(p Promotion, now time.Time) int {
	return int(math.Ceil(float64(p.EndDate.Sub(now)) / float64(day)))
}

// Status derives the badge state of a promotion at now.
func Status(p Promotion, now time.Time) enums.PromotionStatus {
	switch {
	case p.IsDeleted:
		return enums.PromotionStatusDeleted
	case !p.Active:
		return enums.PromotionStatusInactive
	case now.Before(p.StartDate):
		return enums.PromotionStatusScheduled
	case now.After(p.EndDate):
		return enums.PromotionStatusExpired
	case p.EndDate.Sub(now) < day:
		return enums.PromotionStatusLastDay
	default:
		return enums.PromotionStatusActive
	}
}

// Quote prices one product against an optional promotion. A nil or
// non-vigent promotion yields an undiscounted quote, and so does a discount
// that rounds above the list price.
func Quote(productID string, price decimal.Decimal, promo *Promotion, now time.Time) PriceQuote {
	quote := PriceQuote{
		ProductID:       productID,
		OriginalPrice:   price,
		DiscountedPrice: price,
		Savings:         decimal.Zero,
	}
	if promo == nil {
		return quote
	}
	quote.Status = Status(*promo, now)
	if !quote.Status.IsUsable() {
		return quote
	}

	discounted := ComputeDiscountedPrice(price, promo.Discount)
	if discounted.GreaterThan(price) {
		discounted = price
	}
	days := DaysRemaining(*promo, now)
	quote.DiscountedPrice = discounted
	quote.Savings = price.Sub(discounted)
	quote.DaysRemaining = &days
	quote.Promotion = &PromotionSummary{ID: promo.ID, Title: promo.Title, EndDate: promo.EndDate}
	if quote.Savings.IsPositive() {
		quote.DiscountPercent = promo.Discount
		quote.Message = SavingsMessage(quote.Savings)
	}
	return quote
}

// SavingsMessage renders the shopper-facing savings label. Whole amounts
// print without decimals, anything else with two.
func SavingsMessage(savings decimal.Decimal) string {
	if savings.IsInteger() {
		return "Ahorrás $" + savings.StringFixed(0)
	}
	return "Ahorrás $" + savings.StringFixed(2)
}

// Resolver binds the pure pricing functions to a clock.
type Resolver struct {
	now func() time.Time
}

// NewResolver builds a Resolver. A nil clock defaults to time.Now.
func NewResolver(clock func() time.Time) *Resolver {
	if clock == nil {
		clock = time.Now
	}
	return &Resolver{now: clock}
}

// Now returns the resolver's current time.
func (r *Resolver) Now() time.Time {
	return r.now()
}

// IsValid reports whether p is vigent right now.
func (r *Resolver) IsValid(p Promotion) bool {
	return IsPromotionCurrentlyValid(p, r.now())
}

// DaysRemaining reports the signed number of days left on p.
func (r *Resolver) DaysRemaining(p Promotion) int {
	return DaysRemaining(p, r.now())
}

// Status derives the badge state of p right now.
func (r *Resolver) Status(p Promotion) enums.PromotionStatus {
	return Status(p, r.now())
}

// Vigent filters promotions down to the ones valid right now, keeping order.
func (r *Resolver) Vigent(promotions []Promotion) []Promotion {
	now := r.now()
	out := make([]Promotion, 0, len(promotions))
	for _, p := range promotions {
		if IsPromotionCurrentlyValid(p, now) {
			out = append(out, p)
		}
	}
	return out
}

// QuoteProduct finds the vigent promotion for productID and prices it.
func (r *Resolver) QuoteProduct(productID string, price decimal.Decimal, promotions []Promotion) PriceQuote {
	now := r.now()
	promo := FindVigentPromotionForProduct(productID, promotions, now)
	return Quote(productID, price, promo, now)
}

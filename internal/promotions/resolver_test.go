package promotions

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var refNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func vigentPromo(id string, discount int, refs ...ProductRef) Promotion {
	return Promotion{
		ID:        id,
		Title:     "promo " + id,
		Discount:  discount,
		StartDate: refNow.Add(-48 * time.Hour),
		EndDate:   refNow.Add(72 * time.Hour),
		Active:    true,
		Products:  refs,
	}
}

func TestFindPromotionForProductMatchesRawAndEmbedded(t *testing.T) {
	raw := vigentPromo("p1", 10, RawRef("A"), RawRef("B"))
	embedded := vigentPromo("p2", 20, EmbeddedRef(EmbeddedProduct{ID: "C", Name: "Shoes"}))
	promos := []Promotion{raw, embedded}

	if got := FindPromotionForProduct("B", promos); got == nil || got.ID != "p1" {
		t.Fatalf("expected p1 for raw id, got %+v", got)
	}
	if got := FindPromotionForProduct("C", promos); got == nil || got.ID != "p2" {
		t.Fatalf("expected p2 for embedded id, got %+v", got)
	}
	if got := FindPromotionForProduct("Z", promos); got != nil {
		t.Fatalf("expected nil for unknown product, got %+v", got)
	}
}

func TestFindPromotionForProductEmptyInputs(t *testing.T) {
	promos := []Promotion{vigentPromo("p1", 10, RawRef("A"))}
	if FindPromotionForProduct("", promos) != nil {
		t.Fatal("empty product id should yield nil")
	}
	if FindPromotionForProduct("A", nil) != nil {
		t.Fatal("nil promotions should yield nil")
	}
	withEmptyRef := []Promotion{vigentPromo("p2", 10, ProductRef{})}
	if FindPromotionForProduct("A", withEmptyRef) != nil {
		t.Fatal("empty reference must not match")
	}
}

func TestFindPromotionForProductFirstMatchWins(t *testing.T) {
	promos := []Promotion{
		vigentPromo("first", 10, RawRef("A")),
		vigentPromo("second", 50, RawRef("A")),
	}
	if got := FindPromotionForProduct("A", promos); got.ID != "first" {
		t.Fatalf("expected list order to win, got %s", got.ID)
	}
}

func TestFindVigentPromotionSkipsInvalid(t *testing.T) {
	expired := vigentPromo("old", 50, RawRef("A"))
	expired.EndDate = refNow.Add(-time.Hour)
	current := vigentPromo("new", 10, RawRef("A"))
	promos := []Promotion{expired, current}

	if got := FindPromotionForProduct("A", promos); got.ID != "old" {
		t.Fatalf("plain lookup ignores validity, got %s", got.ID)
	}
	if got := FindVigentPromotionForProduct("A", promos, refNow); got == nil || got.ID != "new" {
		t.Fatalf("expected vigent promo, got %+v", got)
	}
}

func TestComputeDiscountedPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		discount int
		want     string
	}{
		{"no discount", "100", 0, "100"},
		{"negative discount", "100", -5, "100"},
		{"full discount", "100", 100, "0"},
		{"twenty percent", "100", 20, "80"},
		{"rounds half up", "25", 50, "13"},
		{"rounds down", "99.99", 15, "85"},
		{"zero price sentinel", "0", 30, "0"},
		{"over one hundred clamps", "80", 150, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscountedPrice(decimal.RequireFromString(tt.price), tt.discount)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected %s got %s", tt.want, got)
			}
		})
	}
}

func TestIsPromotionCurrentlyValidBoundaries(t *testing.T) {
	p := vigentPromo("p", 10)
	p.StartDate = refNow
	p.EndDate = refNow.Add(24 * time.Hour)

	if !IsPromotionCurrentlyValid(p, p.StartDate) {
		t.Fatal("valid at exact start")
	}
	if !IsPromotionCurrentlyValid(p, p.EndDate) {
		t.Fatal("valid at exact end")
	}
	if IsPromotionCurrentlyValid(p, p.StartDate.Add(-time.Millisecond)) {
		t.Fatal("invalid one millisecond before start")
	}
	if IsPromotionCurrentlyValid(p, p.EndDate.Add(time.Millisecond)) {
		t.Fatal("invalid one millisecond after end")
	}

	inactive := p
	inactive.Active = false
	if IsPromotionCurrentlyValid(inactive, refNow) {
		t.Fatal("inactive promotion must be invalid")
	}
	deleted := p
	deleted.IsDeleted = true
	if IsPromotionCurrentlyValid(deleted, refNow) {
		t.Fatal("deleted promotion must be invalid")
	}
}

func TestDaysRemaining(t *testing.T) {
	p := vigentPromo("p", 10)

	p.EndDate = refNow.Add(72 * time.Hour)
	if got := DaysRemaining(p, refNow); got != 3 {
		t.Fatalf("expected 3 got %d", got)
	}
	p.EndDate = refNow.Add(26 * time.Hour)
	if got := DaysRemaining(p, refNow); got != 2 {
		t.Fatalf("partial days round up, got %d", got)
	}
	p.EndDate = refNow.Add(-25 * time.Hour)
	if got := DaysRemaining(p, refNow); got >= 0 {
		t.Fatalf("ended yesterday should be negative, got %d", got)
	}
}

func TestStatus(t *testing.T) {
	base := vigentPromo("p", 10)
	tests := []struct {
		name   string
		mutate func(*Promotion)
		want   enums.PromotionStatus
	}{
		{"active", func(*Promotion) {}, enums.PromotionStatusActive},
		{"deleted wins", func(p *Promotion) { p.IsDeleted = true; p.Active = false }, enums.PromotionStatusDeleted},
		{"inactive", func(p *Promotion) { p.Active = false }, enums.PromotionStatusInactive},
		{"scheduled", func(p *Promotion) { p.StartDate = refNow.Add(time.Hour) }, enums.PromotionStatusScheduled},
		{"expired", func(p *Promotion) { p.EndDate = refNow.Add(-time.Second) }, enums.PromotionStatusExpired},
		{"last day", func(p *Promotion) { p.EndDate = refNow.Add(5 * time.Hour) }, enums.PromotionStatusLastDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			if got := Status(p, refNow); got != tt.want {
				t.Fatalf("expected %s got %s", tt.want, got)
			}
		})
	}
}

func TestQuoteWithVigentPromotion(t *testing.T) {
	promo := vigentPromo("p", 20, RawRef("A"))
	quote := Quote("A", decimal.NewFromInt(100), &promo, refNow)

	if !quote.DiscountedPrice.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected 80 got %s", quote.DiscountedPrice)
	}
	if !quote.Savings.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected savings 20 got %s", quote.Savings)
	}
	if quote.Message != "Ahorrás $20" {
		t.Fatalf("unexpected message %q", quote.Message)
	}
	if quote.DaysRemaining == nil || *quote.DaysRemaining != 3 {
		t.Fatalf("expected 3 days remaining, got %v", quote.DaysRemaining)
	}
	if quote.Status != enums.PromotionStatusActive || quote.Promotion == nil || quote.Promotion.ID != "p" {
		t.Fatalf("unexpected quote metadata %+v", quote)
	}
}

func TestQuoteWithoutUsablePromotion(t *testing.T) {
	price := decimal.RequireFromString("49.90")
	if q := Quote("A", price, nil, refNow); !q.DiscountedPrice.Equal(price) || q.Message != "" {
		t.Fatalf("nil promotion should not discount: %+v", q)
	}

	scheduled := vigentPromo("p", 20, RawRef("A"))
	scheduled.StartDate = refNow.Add(time.Hour)
	q := Quote("A", price, &scheduled, refNow)
	if !q.DiscountedPrice.Equal(price) || q.DiscountPercent != 0 {
		t.Fatalf("scheduled promotion should not discount: %+v", q)
	}
	if q.Status != enums.PromotionStatusScheduled {
		t.Fatalf("expected scheduled status, got %s", q.Status)
	}
}

func TestQuoteNeverRaisesListPrice(t *testing.T) {
	promo := vigentPromo("p", 1, RawRef("A"))
	price := decimal.RequireFromString("25.99")

	if raw := ComputeDiscountedPrice(price, 1); !raw.Equal(decimal.NewFromInt(26)) {
		t.Fatalf("expected raw rounding to 26, got %s", raw)
	}
	q := Quote("A", price, &promo, refNow)
	if !q.DiscountedPrice.Equal(price) {
		t.Fatalf("expected list price 25.99, got %s", q.DiscountedPrice)
	}
	if !q.Savings.IsZero() || q.DiscountPercent != 0 || q.Message != "" {
		t.Fatalf("expected no usable discount, got %+v", q)
	}
}

func TestSavingsMessageFormatsCents(t *testing.T) {
	cases := map[string]string{
		"20":   "Ahorrás $20",
		"2.5":  "Ahorrás $2.50",
		"0.05": "Ahorrás $0.05",
	}
	for in, want := range cases {
		if got := SavingsMessage(decimal.RequireFromString(in)); got != want {
			t.Fatalf("SavingsMessage(%s) = %q, want %q", in, got, want)
		}
	}

	promo := vigentPromo("p", 10, RawRef("A"))
	q := Quote("A", decimal.RequireFromString("25.5"), &promo, refNow)
	if q.Message != "Ahorrás $2.50" {
		t.Fatalf("unexpected message %q", q.Message)
	}
}

func TestResolverUsesInjectedClock(t *testing.T) {
	current := refNow
	r := NewResolver(func() time.Time { return current })
	promo := vigentPromo("p", 20, RawRef("A"))
	promos := []Promotion{promo}

	if got := r.QuoteProduct("A", decimal.NewFromInt(50), promos); !got.DiscountedPrice.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected 40 got %s", got.DiscountedPrice)
	}
	if len(r.Vigent(promos)) != 1 {
		t.Fatal("expected promotion to be vigent")
	}

	current = promo.EndDate.Add(time.Minute)
	if r.IsValid(promo) {
		t.Fatal("promotion should expire when clock advances")
	}
	if got := r.QuoteProduct("A", decimal.NewFromInt(50), promos); !got.DiscountedPrice.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expired promotion should not discount, got %s", got.DiscountedPrice)
	}
	if len(r.Vigent(promos)) != 0 {
		t.Fatal("expected no vigent promotions")
	}
}

func TestProductRefJSON(t *testing.T) {
	payload := `["A", {"id": "B", "name": "Boots", "price": 120}, {"_id": "C"}]`
	var refs []ProductRef
	if err := json.Unmarshal([]byte(payload), &refs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs got %d", len(refs))
	}
	if refs[0].IsEmbedded() || refs[0].ID() != "A" {
		t.Fatalf("expected raw A, got %+v", refs[0])
	}
	if !refs[1].IsEmbedded() || refs[1].ID() != "B" || refs[1].Product.Name != "Boots" {
		t.Fatalf("expected embedded B, got %+v", refs[1])
	}
	if refs[2].ID() != "C" {
		t.Fatalf("expected _id fallback, got %q", refs[2].ID())
	}

	out, err := json.Marshal([]ProductRef{RawRef("A")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `["A"]` {
		t.Fatalf("raw ref should marshal as string, got %s", out)
	}

	var bad ProductRef
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Fatal("expected error for numeric reference")
	}
}

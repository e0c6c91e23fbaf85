package promotions

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

var svcNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type gormProducts struct {
	db *gorm.DB
}

func (g gormProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := g.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (g gormProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := g.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t, models.All()...)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		DB:       db.NewFromGorm(conn),
		Products: gormProducts{db: conn},
		Outbox:   outbox.NewService(outbox.NewRepository(conn), nil),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Clock:    func() time.Time { return svcNow },
	})
	require.NoError(t, err)
	return svc, conn
}

func mustCreateTestProduct(t *testing.T, conn *gorm.DB, name, price string) models.Product {
	t.Helper()
	p := models.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     10,
		Available: true,
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func window(startOffset, endOffset time.Duration) (time.Time, time.Time) {
	return svcNow.Add(startOffset), svcNow.Add(endOffset)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateValidatesFields(t *testing.T) {
	svc, _ := newTestService(t)
	start, end := window(-time.Hour, time.Hour)

	cases := map[string]CreateInput{
		"missing title":    {Title: "  ", Discount: 10, StartDate: start, EndDate: end},
		"zero discount":    {Title: "x", Discount: 0, StartDate: start, EndDate: end},
		"discount >100":    {Title: "x", Discount: 101, StartDate: start, EndDate: end},
		"end before start": {Title: "x", Discount: 10, StartDate: end, EndDate: start},
		"missing dates":    {Title: "x", Discount: 10},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestCreateAcceptsMixedProductReferences(t *testing.T) {
	svc, conn := newTestService(t)
	shoes := mustCreateTestProduct(t, conn, "Shoes", "100")
	socks := mustCreateTestProduct(t, conn, "Socks", "10")
	start, end := window(-time.Hour, 72*time.Hour)

	dto, err := svc.Create(context.Background(), CreateInput{
		Title:     "Spring sale",
		Discount:  20,
		StartDate: start,
		EndDate:   end,
		Products: []ProductRef{
			RawRef(socks.ID.String()),
			EmbeddedRef(EmbeddedProduct{ID: shoes.ID.String()}),
			RawRef(socks.ID.String()),
		},
	})
	require.NoError(t, err)

	require.Len(t, dto.Products, 2)
	assert.Equal(t, socks.ID.String(), dto.Products[0].ID())
	assert.Equal(t, shoes.ID.String(), dto.Products[1].ID())
	assert.True(t, dto.Products[1].IsEmbedded())
	assert.Equal(t, "Shoes", dto.Products[1].Product.Name)
	assert.Equal(t, enums.PromotionStatusActive, dto.Status)
	assert.Equal(t, 3, dto.DaysRemaining)
	assert.True(t, dto.Vigent)
}

func TestCreateRejectsUnknownProducts(t *testing.T) {
	svc, _ := newTestService(t)
	start, end := window(-time.Hour, time.Hour)

	_, err := svc.Create(context.Background(), CreateInput{
		Title: "x", Discount: 10, StartDate: start, EndDate: end,
		Products: []ProductRef{RawRef(uuid.NewString())},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Details(), "missing_product_ids")

	_, err = svc.Create(context.Background(), CreateInput{
		Title: "x", Discount: 10, StartDate: start, EndDate: end,
		Products: []ProductRef{RawRef("not-a-uuid")},
	})
	require.Error(t, err)
	assert.Contains(t, pkgerrors.As(err).Details(), "invalid_product_ids")
}

func TestUpdateReplacesProductsAndFields(t *testing.T) {
	svc, conn := newTestService(t)
	a := mustCreateTestProduct(t, conn, "A", "50")
	b := mustCreateTestProduct(t, conn, "B", "60")
	start, end := window(-time.Hour, 48*time.Hour)

	created, err := svc.Create(context.Background(), CreateInput{
		Title: "Promo", Discount: 10, StartDate: start, EndDate: end,
		Products: []ProductRef{RawRef(a.ID.String())},
	})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	discount := 35
	refs := []ProductRef{RawRef(b.ID.String())}
	updated, err := svc.Update(context.Background(), id, UpdateInput{Discount: &discount, Products: &refs})
	require.NoError(t, err)
	assert.Equal(t, 35, updated.Discount)
	require.Len(t, updated.Products, 1)
	assert.Equal(t, b.ID.String(), updated.Products[0].ID())

	bad := 0
	_, err = svc.Update(context.Background(), id, UpdateInput{Discount: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.SoftDelete(context.Background(), id))
	_, err = svc.Update(context.Background(), id, UpdateInput{Discount: &discount})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestSoftDeleteHidesFromDefaultList(t *testing.T) {
	svc, _ := newTestService(t)
	start, end := window(-time.Hour, time.Hour)

	created, err := svc.Create(context.Background(), CreateInput{Title: "Gone", Discount: 5, StartDate: start, EndDate: end})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	require.NoError(t, svc.SoftDelete(context.Background(), id))

	visible, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, enums.PromotionStatusDeleted, all[0].Status)
	assert.False(t, all[0].Vigent)

	err = svc.SoftDelete(context.Background(), id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListVigentAndPricing(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateTestProduct(t, conn, "Jacket", "100")
	ctx := context.Background()
	refs := []ProductRef{RawRef(product.ID.String())}

	start, end := window(time.Hour, 48*time.Hour)
	_, err := svc.Create(ctx, CreateInput{Title: "Scheduled", Discount: 50, StartDate: start, EndDate: end, Products: refs})
	require.NoError(t, err)

	inactive := false
	start, end = window(-time.Hour, 48*time.Hour)
	_, err = svc.Create(ctx, CreateInput{Title: "Paused", Discount: 40, StartDate: start, EndDate: end, Products: refs, Active: &inactive})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Title: "Live", Discount: 20, StartDate: start, EndDate: end, Products: refs})
	require.NoError(t, err)

	vigent, err := svc.ListVigent(ctx)
	require.NoError(t, err)
	require.Len(t, vigent, 1)
	assert.Equal(t, "Live", vigent[0].Title)

	quote, err := svc.PricingForProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, quote.DiscountedPrice.Equal(decimal.NewFromInt(80)), "got %s", quote.DiscountedPrice)
	assert.Equal(t, "Ahorrás $20", quote.Message)
	assert.Equal(t, 20, quote.DiscountPercent)

	_, err = svc.PricingForProduct(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeactivateExpiredEmitsEvents(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateTestProduct(t, conn, "Hat", "30")
	ctx := context.Background()

	start, end := window(-72*time.Hour, -time.Hour)
	expired, err := svc.Create(ctx, CreateInput{
		Title: "Old", Discount: 10, StartDate: start, EndDate: end,
		Products: []ProductRef{RawRef(product.ID.String())},
	})
	require.NoError(t, err)
	start, end = window(-time.Hour, time.Hour)
	_, err = svc.Create(ctx, CreateInput{Title: "Current", Discount: 10, StartDate: start, EndDate: end})
	require.NoError(t, err)

	count, err := svc.DeactivateExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	reloaded, err := svc.Get(ctx, uuid.MustParse(expired.ID))
	require.NoError(t, err)
	assert.False(t, reloaded.Active)
	assert.Equal(t, enums.PromotionStatusInactive, reloaded.Status)

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventPromotionExpired, events[0].EventType)
	assert.Equal(t, expired.ID, events[0].AggregateID.String())

	count, err = svc.DeactivateExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

package product

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var baseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t, models.All()...)
}

func discardLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// mustCreateTestProduct inserts a product created offset minutes after baseTime.
func mustCreateTestProduct(t *testing.T, tx *gorm.DB, name, category, price string, stock int, offset int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Category:  category,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Available: true,
		CreatedAt: baseTime.Add(time.Duration(offset) * time.Minute),
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

type stubPromotions struct {
	promos []promotions.Promotion
	err    error
}

func (s stubPromotions) Vigent(context.Context) ([]promotions.Promotion, error) {
	return s.promos, s.err
}

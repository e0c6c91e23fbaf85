package favorites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository encapsulates favorites persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Add inserts the customer-product pair and ignores duplicates. It reports
// whether a new row was written.
func (r *Repository) Add(ctx context.Context, customerID string, productID uuid.UUID) (bool, error) {
	if customerID == "" || productID == uuid.Nil {
		return false, gorm.ErrInvalidValue
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&models.Favorite{CustomerID: customerID, ProductID: productID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes the pair if present and reports whether a row was removed.
func (r *Repository) Remove(ctx context.Context, customerID string, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists reports whether the customer has favorited the product.
func (r *Repository) Exists(ctx context.Context, customerID string, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Count(&count).Error
	return count > 0, err
}

// List returns one page of the customer's favorites, newest first.
func (r *Repository) List(ctx context.Context, customerID string, params pagination.Params) ([]models.Favorite, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Favorite
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	page, next := pagination.Trim(rows, params.Limit, func(f models.Favorite) pagination.Cursor {
		return pagination.Cursor{CreatedAt: f.CreatedAt, ID: f.ID}
	})
	return page, next, nil
}

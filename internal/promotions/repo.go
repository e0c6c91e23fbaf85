package promotions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists promotions and their ordered product links.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the promotion row and its product links.
func (r *Repository) Create(ctx context.Context, promo *models.Promotion, productIDs []uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit(clause.Associations).Create(promo).Error; err != nil {
		return err
	}
	return r.replaceLinks(tx, promo.ID, productIDs)
}

// Update saves scalar columns and, when productIDs is non-nil, replaces the product links.
func (r *Repository) Update(ctx context.Context, promo *models.Promotion, productIDs []uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(&models.Promotion{}).
		Where("id = ?", promo.ID).
		Updates(map[string]any{
			"title":       promo.Title,
			"description": promo.Description,
			"discount":    promo.Discount,
			"start_date":  promo.StartDate,
			"end_date":    promo.EndDate,
			"active":      promo.Active,
			"updated_at":  time.Now().UTC(),
		}).Error; err != nil {
		return err
	}
	if productIDs == nil {
		return nil
	}
	return r.replaceLinks(tx, promo.ID, productIDs)
}

func (r *Repository) replaceLinks(tx *gorm.DB, promotionID uuid.UUID, productIDs []uuid.UUID) error {
	if err := tx.Where("promotion_id = ?", promotionID).Delete(&models.PromotionProduct{}).Error; err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	links := make([]models.PromotionProduct, 0, len(productIDs))
	for i, id := range productIDs {
		links = append(links, models.PromotionProduct{PromotionID: promotionID, ProductID: id, Position: i})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

// FindByID loads one promotion with its products populated.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.withProducts(r.db.WithContext(ctx)).First(&promo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// List returns promotions in resolution order: oldest first.
func (r *Repository) List(ctx context.Context, includeDeleted bool) ([]models.Promotion, error) {
	query := r.withProducts(r.db.WithContext(ctx))
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	var rows []models.Promotion
	err := query.Order("created_at ASC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// ListActive returns active, non-deleted promotions in resolution order.
// Date validity is left to the caller so it is always judged against the live clock.
func (r *Repository) ListActive(ctx context.Context) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.withProducts(r.db.WithContext(ctx)).
		Where("active = ? AND is_deleted = ?", true, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// SoftDelete flags the promotion as deleted and inactive.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{
			"is_deleted": true,
			"active":     false,
			"deleted_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Deactivate clears the active flag on the given promotions.
func (r *Repository) Deactivate(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id IN ? AND active = ?", ids, true).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) withProducts(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Products", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("Products.Product")
}

// IsNotFound reports whether err means the promotion does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

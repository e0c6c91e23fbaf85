package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus, canceledAt *time.Time) (bool, error)
}

// Inventory moves live stock inside the caller's transaction.
type Inventory interface {
	Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Stock(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartConsumer interface {
	Consume(ctx context.Context, cartID string, fn func(ctx context.Context, c cart.Cart, warnings []cart.Warning) error) error
}

type promotionSource interface {
	Vigent(ctx context.Context) ([]promotions.Promotion, error)
}

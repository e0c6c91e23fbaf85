package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
)

type catalogInventory struct{}

// NewInventory returns the Inventory backed by the catalog's stock counter.
func NewInventory() Inventory {
	return catalogInventory{}
}

func (catalogInventory) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	return product.NewRepository(tx).DecrementStock(ctx, productID, qty)
}

func (catalogInventory) Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return product.NewRepository(tx).Restock(ctx, productID, qty)
}

// Stock reports the current stock and availability; a missing product reads as 0, false.
func (catalogInventory) Stock(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, bool, error) {
	p, err := product.NewRepository(tx).FindByID(ctx, productID)
	if err != nil {
		if product.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return p.Stock, p.Available, nil
}

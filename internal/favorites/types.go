package favorites

import (
	"time"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
)

// ToggleResult reports the favorite state after a toggle.
type ToggleResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Favorited bool      `json:"favorited"`
}

// FavoriteDTO wraps the priced product for a favorites row.
type FavoriteDTO struct {
	Product     product.ProductDTO `json:"product"`
	FavoritedAt time.Time          `json:"favorited_at"`
}

// FavoritesPage is a cursor-paginated favorites view.
type FavoritesPage struct {
	Items      []FavoriteDTO `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// IDsPage is the lightweight projection holding only product ids.
type IDsPage struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

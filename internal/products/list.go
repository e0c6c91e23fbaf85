package product

import "github.com/angelmondragon/storefront-backend/pkg/pagination"

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category      string `json:"category,omitempty"`
	Query         string `json:"q,omitempty"`
	OnlyAvailable bool   `json:"only_available,omitempty"`
}

// ListInput captures the inputs needed to filter and paginate the catalog.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// ListResult is one page of priced products.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

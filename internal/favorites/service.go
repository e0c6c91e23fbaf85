package favorites

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes the customer favorites list.
type Service interface {
	Toggle(ctx context.Context, customerID string, productID uuid.UUID) (*ToggleResult, error)
	List(ctx context.Context, customerID string, params pagination.Params) (*FavoritesPage, error)
	IDs(ctx context.Context, customerID string, params pagination.Params) (*IDsPage, error)
}

type catalog interface {
	Get(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]product.ProductDTO, error)
}

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	Repo    *Repository
	Catalog catalog
	Logger  *logger.Logger
}

type service struct {
	repo    *Repository
	catalog catalog
	logg    *logger.Logger
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("favorites repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		logg:    params.Logger,
	}, nil
}

// Toggle removes an existing favorite or adds a new one after confirming the
// product exists.
func (s *service) Toggle(ctx context.Context, customerID string, productID uuid.UUID) (*ToggleResult, error) {
	customerID, err := requireCustomer(customerID)
	if err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	removed, err := s.repo.Remove(ctx, customerID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	if removed {
		return &ToggleResult{ProductID: productID, Favorited: false}, nil
	}

	if _, err := s.catalog.Get(ctx, productID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Add(ctx, customerID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}

	ctx = s.logg.WithProductID(s.logg.WithCustomerID(ctx, customerID), productID.String())
	s.logg.Debug(ctx, "product favorited")
	return &ToggleResult{ProductID: productID, Favorited: true}, nil
}

func (s *service) List(ctx context.Context, customerID string, params pagination.Params) (*FavoritesPage, error) {
	rows, next, err := s.page(ctx, customerID, params)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	priced, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]product.ProductDTO, len(priced))
	for _, p := range priced {
		byID[p.ID] = p
	}

	items := make([]FavoriteDTO, 0, len(rows))
	for _, row := range rows {
		p, ok := byID[row.ProductID]
		if !ok {
			continue
		}
		items = append(items, FavoriteDTO{Product: p, FavoritedAt: row.CreatedAt})
	}
	return &FavoritesPage{Items: items, NextCursor: next}, nil
}

func (s *service) IDs(ctx context.Context, customerID string, params pagination.Params) (*IDsPage, error) {
	rows, next, err := s.page(ctx, customerID, params)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	return &IDsPage{ProductIDs: ids, NextCursor: next}, nil
}

func (s *service) page(ctx context.Context, customerID string, params pagination.Params) ([]models.Favorite, string, error) {
	customerID, err := requireCustomer(customerID)
	if err != nil {
		return nil, "", err
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, customerID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}
	return rows, next, nil
}

func requireCustomer(customerID string) (string, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return customerID, nil
}

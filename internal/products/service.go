package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service exposes catalog management and browse operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductDTO, error)
	Categories(ctx context.Context) ([]string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type promotionSource interface {
	Vigent(ctx context.Context) ([]promotions.Promotion, error)
}

// ServiceParams wires the catalog service.
type ServiceParams struct {
	Repo       *Repository
	DB         txRunner
	Promotions promotionSource
	Logger     *logger.Logger
	Clock      func() time.Time
}

type service struct {
	repo       *Repository
	db         txRunner
	promotions promotionSource
	logg       *logger.Logger
	resolver   *promotions.Resolver
}

// NewService constructs a catalog service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Promotions == nil {
		return nil, fmt.Errorf("promotion source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		db:         params.DB,
		promotions: params.Promotions,
		logg:       params.Logger,
		resolver:   promotions.NewResolver(params.Clock),
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateProduct(name, input.Price, input.Stock); err != nil {
		return nil, err
	}
	available := true
	if input.Available != nil {
		available = *input.Available
	}
	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		ImageURL:    normalizeURL(input.ImageURL),
		Price:       input.Price,
		Stock:       input.Stock,
		Available:   available,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": product.ID.String(),
		"stock":      product.Stock,
	})
	s.logg.Info(logCtx, "product created")
	return s.price(ctx, *product), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.ImageURL != nil {
		product.ImageURL = normalizeURL(input.ImageURL)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Available != nil {
		product.Available = *input.Available
	}
	if err := validateProduct(product.Name, product.Price, product.Stock); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.logg.Info(s.logg.WithProductID(ctx, id.String()), "product updated")
	return s.price(ctx, *product), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	s.logg.Info(s.logg.WithProductID(ctx, id.String()), "product deleted")
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, *product), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if _, err := pagination.ParseCursor(input.Pagination.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, listQuery{Filters: input.Filters, Pagination: input.Pagination})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	vigent := s.vigent(ctx)
	items := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		quote := s.resolver.QuoteProduct(row.ID.String(), row.Price, vigent)
		items = append(items, newProductDTO(row, quote))
	}
	return &ListResult{Products: items, NextCursor: next}, nil
}

// FindByIDs prices the existing products among ids, keeping the order of ids.
func (s *service) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	vigent := s.vigent(ctx)
	out := make([]ProductDTO, 0, len(rows))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, newProductDTO(row, s.resolver.QuoteProduct(row.ID.String(), row.Price, vigent)))
		delete(byID, id)
	}
	return out, nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) price(ctx context.Context, p models.Product) *ProductDTO {
	quote := s.resolver.QuoteProduct(p.ID.String(), p.Price, s.vigent(ctx))
	dto := newProductDTO(p, quote)
	return &dto
}

// vigent degrades to list prices when promotions cannot be loaded.
func (s *service) vigent(ctx context.Context) []promotions.Promotion {
	promos, err := s.promotions.Vigent(ctx)
	if err != nil {
		s.logg.Error(ctx, "failed to load vigent promotions", err)
		return nil
	}
	return promos
}

func validateProduct(name string, price decimal.Decimal, stock int) error {
	switch {
	case name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case price.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be >= 0")
	case stock < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must be >= 0")
	}
	return nil
}

func normalizeURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// Service exposes promotion management and pricing operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*PromotionDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PromotionDTO, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*PromotionDTO, error)
	List(ctx context.Context, includeDeleted bool) ([]PromotionDTO, error)
	ListVigent(ctx context.Context) ([]PromotionDTO, error)
	Vigent(ctx context.Context) ([]Promotion, error)
	PricingForProduct(ctx context.Context, productID uuid.UUID) (*PriceQuote, error)
	DeactivateExpired(ctx context.Context) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires the promotion service.
type ServiceParams struct {
	Repo     *Repository
	DB       txRunner
	Products productReader
	Outbox   outboxEmitter
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	repo     *Repository
	db       txRunner
	products productReader
	outbox   outboxEmitter
	logg     *logger.Logger
	resolver *Resolver
}

// NewService constructs a promotion service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		db:       params.DB,
		products: params.Products,
		outbox:   params.Outbox,
		logg:     params.Logger,
		resolver: NewResolver(params.Clock),
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*PromotionDTO, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateFields(input.Title, input.Discount, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	productIDs, err := s.resolveProductIDs(ctx, input.Products)
	if err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	promo := &models.Promotion{
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Discount:    input.Discount,
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate.UTC(),
		Active:      active,
	}
	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, promo, productIDs)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"promotion_id": promo.ID.String(),
		"discount":     promo.Discount,
		"products":     len(productIDs),
	})
	s.logg.Info(logCtx, "promotion created")
	return s.Get(ctx, promo.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PromotionDTO, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsDeleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "promotion is deleted")
	}

	if input.Title != nil {
		current.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		current.Description = strings.TrimSpace(*input.Description)
	}
	if input.Discount != nil {
		current.Discount = *input.Discount
	}
	if input.StartDate != nil {
		current.StartDate = input.StartDate.UTC()
	}
	if input.EndDate != nil {
		current.EndDate = input.EndDate.UTC()
	}
	if input.Active != nil {
		current.Active = *input.Active
	}
	if err := validateFields(current.Title, current.Discount, current.StartDate, current.EndDate); err != nil {
		return nil, err
	}

	var productIDs []uuid.UUID
	if input.Products != nil {
		productIDs, err = s.resolveProductIDs(ctx, *input.Products)
		if err != nil {
			return nil, err
		}
		if productIDs == nil {
			productIDs = []uuid.UUID{}
		}
	}

	if err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Update(ctx, current, productIDs)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promotion")
	}
	return s.Get(ctx, id)
}

func (s *service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id, s.resolver.Now().UTC()); err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promotion")
	}
	s.logg.Info(s.logg.WithField(ctx, "promotion_id", id.String()), "promotion deleted")
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PromotionDTO, error) {
	promo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := newPromotionDTO(*promo, s.resolver.Now())
	return &dto, nil
}

func (s *service) List(ctx context.Context, includeDeleted bool) ([]PromotionDTO, error) {
	rows, err := s.repo.List(ctx, includeDeleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	now := s.resolver.Now()
	out := make([]PromotionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, newPromotionDTO(row, now))
	}
	return out, nil
}

func (s *service) ListVigent(ctx context.Context) ([]PromotionDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	now := s.resolver.Now()
	out := make([]PromotionDTO, 0, len(rows))
	for _, row := range rows {
		dto := newPromotionDTO(row, now)
		if dto.Vigent {
			out = append(out, dto)
		}
	}
	return out, nil
}

func (s *service) Vigent(ctx context.Context) ([]Promotion, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}
	return s.resolver.Vigent(FromModels(rows)), nil
}

func (s *service) PricingForProduct(ctx context.Context, productID uuid.UUID) (*PriceQuote, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	vigent, err := s.Vigent(ctx)
	if err != nil {
		return nil, err
	}
	quote := s.resolver.QuoteProduct(product.ID.String(), product.Price, vigent)
	return &quote, nil
}

func (s *service) DeactivateExpired(ctx context.Context) (int, error) {
	now := s.resolver.Now()
	var deactivated int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		rows, err := txRepo.ListActive(ctx)
		if err != nil {
			return err
		}
		var expired []models.Promotion
		for _, row := range rows {
			if Status(FromModel(row), now) == enums.PromotionStatusExpired {
				expired = append(expired, row)
			}
		}
		if len(expired) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(expired))
		for _, row := range expired {
			ids = append(ids, row.ID)
		}
		if _, err := txRepo.Deactivate(ctx, ids); err != nil {
			return err
		}
		for _, row := range expired {
			productIDs := make([]uuid.UUID, 0, len(row.Products))
			for _, link := range row.Products {
				productIDs = append(productIDs, link.ProductID)
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPromotionExpired,
				AggregateType: enums.AggregatePromotion,
				AggregateID:   row.ID,
				OccurredAt:    now,
				Data: payloads.PromotionExpiredEvent{
					PromotionID: row.ID,
					Title:       row.Title,
					EndDate:     row.EndDate,
					ProductIDs:  productIDs,
				},
			}); err != nil {
				return err
			}
		}
		deactivated = len(expired)
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate expired promotions")
	}
	return deactivated, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return promo, nil
}

// resolveProductIDs normalizes raw and embedded references, drops duplicates
// while keeping order, and checks every product exists.
func (s *service) resolveProductIDs(ctx context.Context, refs []ProductRef) ([]uuid.UUID, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(refs))
	ids := make([]uuid.UUID, 0, len(refs))
	var invalid []string
	for _, ref := range refs {
		raw := strings.TrimSpace(ref.ID())
		id, err := uuid.Parse(raw)
		if err != nil {
			invalid = append(invalid, raw)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(invalid) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product reference").
			WithDetails(map[string]any{"invalid_product_ids": invalid})
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion products")
	}
	present := make(map[uuid.UUID]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown products in promotion").
			WithDetails(map[string]any{"missing_product_ids": missing})
	}
	return ids, nil
}

func validateFields(title string, discount int, start, end time.Time) error {
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if discount < 1 || discount > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 1 and 100")
	}
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_date and end_date are required")
	}
	if end.Before(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end_date must not be before start_date")
	}
	return nil
}

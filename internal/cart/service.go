package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	opCreate = "create"
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
)

// Service owns cart state and routes every mutation through the reconciler.
type Service interface {
	Create(ctx context.Context, customerID string) (*View, error)
	Get(ctx context.Context, cartID string) (*View, error)
	AddItem(ctx context.Context, cartID, productID string, qty int) (*View, error)
	UpdateItem(ctx context.Context, cartID, productID string, qty int) (*View, error)
	RemoveItem(ctx context.Context, cartID, productID string) (*View, error)
	Clear(ctx context.Context, cartID string) (*View, error)
	// Consume runs fn on the reconciled cart under the cart lock and deletes the cart when fn succeeds.
	Consume(ctx context.Context, cartID string, fn func(ctx context.Context, c Cart, warnings []Warning) error) error
}

type productSource interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Limits bounds cart size.
type Limits struct {
	MaxLineQty   int
	MaxLineItems int
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Store    Store
	Locker   Locker
	Products productSource
	Metrics  *metrics.CartMetrics
	Logger   *logger.Logger
	Limits   Limits
	Clock    func() time.Time
}

type service struct {
	store    Store
	locker   Locker
	products productSource
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	limits   Limits
	now      func() time.Time
}

// NewService constructs the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("cart locker required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		store:    params.Store,
		locker:   params.Locker,
		products: params.Products,
		metrics:  params.Metrics,
		logg:     params.Logger,
		limits:   params.Limits,
		now:      func() time.Time { return clock().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, customerID string) (*View, error) {
	now := s.now()
	c := Cart{
		ID:         uuid.NewString(),
		CustomerID: strings.TrimSpace(customerID),
		Items:      []LineItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Save(ctx, c); err != nil {
		s.metrics.IncOperation(opCreate, metrics.ResultError)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	s.metrics.IncOperation(opCreate, metrics.ResultOK)
	s.logg.Info(s.logg.WithCartID(ctx, c.ID), "cart created")
	return NewView(c, nil), nil
}

func (s *service) Get(ctx context.Context, cartID string) (*View, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	live, err := s.liveProducts(ctx, *c)
	if err != nil {
		return nil, err
	}
	reconciled, warnings := Reconcile(*c, live)
	return NewView(reconciled, warnings), nil
}

func (s *service) AddItem(ctx context.Context, cartID, productID string, qty int) (*View, error) {
	if _, err := parseProductID(productID); err != nil {
		s.metrics.IncOperation(opAdd, metrics.ResultInvalid)
		return nil, err
	}
	if s.limits.MaxLineQty > 0 && qty > s.limits.MaxLineQty {
		s.metrics.IncOperation(opAdd, metrics.ResultInvalid)
		return nil, lineQtyLimit(productID, s.limits.MaxLineQty)
	}
	return s.mutate(ctx, opAdd, cartID, []string{productID}, func(c Cart, live map[string]ProductSnapshot) (Cart, error) {
		product, ok := live[productID]
		if !ok {
			return c, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if _, exists := c.Line(productID); !exists && s.limits.MaxLineItems > 0 && len(c.Items) >= s.limits.MaxLineItems {
			return c, pkgerrors.New(pkgerrors.CodeValidation, "cart line limit reached").
				WithDetails(map[string]any{"max_line_items": s.limits.MaxLineItems})
		}
		next, err := AddToCart(c, product, qty)
		if err != nil {
			return c, err
		}
		if line, _ := next.Line(productID); s.limits.MaxLineQty > 0 && line.Quantity > s.limits.MaxLineQty {
			return c, lineQtyLimit(productID, s.limits.MaxLineQty)
		}
		return next, nil
	})
}

func (s *service) UpdateItem(ctx context.Context, cartID, productID string, qty int) (*View, error) {
	if s.limits.MaxLineQty > 0 && qty > s.limits.MaxLineQty {
		s.metrics.IncOperation(opUpdate, metrics.ResultInvalid)
		return nil, lineQtyLimit(productID, s.limits.MaxLineQty)
	}
	return s.mutate(ctx, opUpdate, cartID, nil, func(c Cart, _ map[string]ProductSnapshot) (Cart, error) {
		return UpdateQuantity(c, productID, qty)
	})
}

func (s *service) RemoveItem(ctx context.Context, cartID, productID string) (*View, error) {
	return s.mutate(ctx, opRemove, cartID, nil, func(c Cart, _ map[string]ProductSnapshot) (Cart, error) {
		return RemoveFromCart(c, productID), nil
	})
}

func (s *service) Clear(ctx context.Context, cartID string) (*View, error) {
	return s.mutate(ctx, opClear, cartID, nil, func(c Cart, _ map[string]ProductSnapshot) (Cart, error) {
		c.Items = []LineItem{}
		return c, nil
	})
}

func (s *service) Consume(ctx context.Context, cartID string, fn func(ctx context.Context, c Cart, warnings []Warning) error) error {
	unlock, err := s.lock(ctx, cartID)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	live, err := s.liveProducts(ctx, *c)
	if err != nil {
		return err
	}
	reconciled, warnings := Reconcile(*c, live)
	s.recordWarnings(warnings)
	if err := fn(ctx, reconciled, warnings); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, cartID); err != nil {
		s.logg.Error(s.logg.WithCartID(ctx, cartID), "failed to delete consumed cart", err)
	}
	return nil
}

type mutation func(c Cart, live map[string]ProductSnapshot) (Cart, error)

func (s *service) mutate(ctx context.Context, op, cartID string, extraIDs []string, fn mutation) (*View, error) {
	unlock, err := s.lock(ctx, cartID)
	if err != nil {
		s.metrics.IncOperation(op, resultFor(err))
		return nil, err
	}
	defer unlock()

	view, err := s.apply(ctx, cartID, extraIDs, fn)
	s.metrics.IncOperation(op, resultFor(err))
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(s.logg.WithCartID(ctx, cartID), map[string]any{
		"op":         op,
		"item_count": view.ItemCount,
		"warnings":   len(view.Warnings),
	})
	s.logg.Info(logCtx, "cart updated")
	return view, nil
}

func (s *service) apply(ctx context.Context, cartID string, extraIDs []string, fn mutation) (*View, error) {
	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	live, err := s.liveProducts(ctx, *c, extraIDs...)
	if err != nil {
		return nil, err
	}
	reconciled, warnings := Reconcile(*c, live)
	s.recordWarnings(warnings)

	next, err := fn(reconciled, live)
	if err != nil {
		return nil, MapStockError(err)
	}
	next.UpdatedAt = s.now()
	if err := s.store.Save(ctx, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	_, warnings = Reconcile(next, live)
	return NewView(next, warnings), nil
}

func (s *service) lock(ctx context.Context, cartID string) (func(), error) {
	if strings.TrimSpace(cartID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	unlock, err := s.locker.Lock(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrCartBusy) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeBusy, err, "cart is locked by another request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire cart lock")
	}
	return unlock, nil
}

func (s *service) load(ctx context.Context, cartID string) (*Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

// liveProducts loads the catalog rows for every line in c plus extraIDs.
func (s *service) liveProducts(ctx context.Context, c Cart, extraIDs ...string) (map[string]ProductSnapshot, error) {
	seen := map[string]struct{}{}
	ids := make([]uuid.UUID, 0, len(c.Items)+len(extraIDs))
	add := func(raw string) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return
		}
		if _, ok := seen[id.String()]; ok {
			return
		}
		seen[id.String()] = struct{}{}
		ids = append(ids, id)
	}
	for _, item := range c.Items {
		add(item.Product.ID)
	}
	for _, id := range extraIDs {
		add(id)
	}

	live := make(map[string]ProductSnapshot, len(ids))
	if len(ids) == 0 {
		return live, nil
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	for _, row := range rows {
		live[row.ID.String()] = SnapshotFromModel(row)
	}
	return live, nil
}

func (s *service) recordWarnings(warnings []Warning) {
	counts := map[WarningKind]int{}
	for _, w := range warnings {
		counts[w.Kind]++
	}
	for kind, n := range counts {
		s.metrics.AddWarnings(string(kind), n)
	}
}

// SnapshotFromModel captures the cart-relevant fields of a catalog row.
func SnapshotFromModel(p models.Product) ProductSnapshot {
	snap := ProductSnapshot{
		ID:        p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Available: p.Available,
	}
	if p.ImageURL != nil {
		snap.ImageURL = *p.ImageURL
	}
	return snap
}

func parseProductID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").
			WithDetails(map[string]any{"product_id": raw})
	}
	return id, nil
}

func lineQtyLimit(productID string, max int) error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity exceeds per-line limit of %d", max).
		WithDetails(map[string]any{"product_id": productID, "max_quantity": max})
}

func resultFor(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock):
		return metrics.ResultOutOfStock
	case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
		return metrics.ResultInsufficient
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		return metrics.ResultNotFound
	case pkgerrors.IsCode(err, pkgerrors.CodeBusy):
		return metrics.ResultBusy
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}

package cart

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]models.Product
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[uuid.UUID]models.Product{}}
}

func (f *fakeCatalog) put(name, price string, stock int) models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Available: true,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeCatalog) update(p models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *fakeCatalog) remove(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
}

func (f *fakeCatalog) FindByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type serviceFixture struct {
	svc      Service
	catalog  *fakeCatalog
	store    *MemoryStore
	registry *prometheus.Registry
}

func newServiceFixture(t *testing.T, limits Limits) serviceFixture {
	t.Helper()
	catalog := newFakeCatalog()
	store := NewMemoryStore(time.Hour, nil)
	reg := prometheus.NewRegistry()
	m := metrics.NewCartMetrics(reg)
	svc, err := NewService(ServiceParams{
		Store:    store,
		Locker:   NewMemoryLocker(time.Second),
		Products: catalog,
		Metrics:  m,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Limits:   limits,
	})
	require.NoError(t, err)
	return serviceFixture{svc: svc, catalog: catalog, store: store, registry: reg}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok {
			if v != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestServiceAddItemFlow(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	shirt := fx.catalog.put("shirt", "25.99", 5)
	hat := fx.catalog.put("hat", "89.99", 1)

	cart, err := fx.svc.Create(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "cust-1", cart.CustomerID)
	assert.Empty(t, cart.Items)

	_, err = fx.svc.AddItem(ctx, cart.ID, shirt.ID.String(), 2)
	require.NoError(t, err)
	view, err := fx.svc.AddItem(ctx, cart.ID, hat.ID.String(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("141.97")), view.Total.String())
	assert.Empty(t, view.Warnings)

	_, err = fx.svc.AddItem(ctx, cart.ID, hat.ID.String(), 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["max_quantity"])

	stored, err := fx.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ItemCount)

	assert.Equal(t, float64(2), counterValue(t, fx.registry, "storefront_cart_operations_total", map[string]string{"op": "add", "result": metrics.ResultOK}))
	assert.Equal(t, float64(1), counterValue(t, fx.registry, "storefront_cart_operations_total", map[string]string{"op": "add", "result": metrics.ResultInsufficient}))
}

func TestServiceAddItemErrors(t *testing.T) {
	fx := newServiceFixture(t, Limits{MaxLineQty: 3, MaxLineItems: 1})
	ctx := context.Background()
	empty := fx.catalog.put("empty", "10", 0)
	first := fx.catalog.put("first", "10", 10)
	second := fx.catalog.put("second", "10", 10)

	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)

	_, err = fx.svc.AddItem(ctx, cart.ID, "not-a-uuid", 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = fx.svc.AddItem(ctx, cart.ID, uuid.NewString(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = fx.svc.AddItem(ctx, cart.ID, empty.ID.String(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock))

	_, err = fx.svc.AddItem(ctx, cart.ID, first.ID.String(), 4)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = fx.svc.AddItem(ctx, cart.ID, first.ID.String(), 3)
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, first.ID.String(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "line quantity limit")

	_, err = fx.svc.AddItem(ctx, cart.ID, second.ID.String(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "line count limit")

	_, err = fx.svc.AddItem(ctx, uuid.NewString(), first.ID.String(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceUpdateAndRemove(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	p := fx.catalog.put("mug", "12.50", 4)

	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, p.ID.String(), 1)
	require.NoError(t, err)

	view, err := fx.svc.UpdateItem(ctx, cart.ID, p.ID.String(), 4)
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(50)))

	_, err = fx.svc.UpdateItem(ctx, cart.ID, p.ID.String(), 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	view, err = fx.svc.UpdateItem(ctx, cart.ID, uuid.NewString(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, view.ItemCount)

	view, err = fx.svc.RemoveItem(ctx, cart.ID, p.ID.String())
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	view, err = fx.svc.RemoveItem(ctx, cart.ID, p.ID.String())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestServiceUpdateChecksRefreshedStock(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	p := fx.catalog.put("lamp", "30", 5)

	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, p.ID.String(), 1)
	require.NoError(t, err)

	p.Stock = 2
	fx.catalog.update(p)

	_, err = fx.svc.UpdateItem(ctx, cart.ID, p.ID.String(), 3)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Equal(t, 2, details["max_quantity"])
}

func TestServiceGetReportsWarnings(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	gone := fx.catalog.put("gone", "5", 3)
	scarce := fx.catalog.put("scarce", "8", 5)

	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, gone.ID.String(), 1)
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, scarce.ID.String(), 4)
	require.NoError(t, err)

	fx.catalog.remove(gone.ID)
	scarce.Stock = 1
	scarce.Price = decimal.NewFromInt(9)
	fx.catalog.update(scarce)

	view, err := fx.svc.Get(ctx, cart.ID)
	require.NoError(t, err)

	kinds := map[WarningKind]bool{}
	for _, w := range view.Warnings {
		kinds[w.Kind] = true
	}
	assert.True(t, kinds[WarningProductRemoved])
	assert.True(t, kinds[WarningInsufficientStock])
	assert.True(t, kinds[WarningPriceChanged])
	assert.Equal(t, 5, view.ItemCount, "reconcile never clamps quantities")
	assert.True(t, view.Total.Equal(decimal.NewFromInt(37)), "unit prices stay as captured")
}

func TestServiceClear(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	p := fx.catalog.put("pen", "1", 10)

	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, p.ID.String(), 3)
	require.NoError(t, err)

	view, err := fx.svc.Clear(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestServiceConsume(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	p := fx.catalog.put("book", "20", 3)

	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)
	_, err = fx.svc.AddItem(ctx, cart.ID, p.ID.String(), 2)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = fx.svc.Consume(ctx, cart.ID, func(context.Context, Cart, []Warning) error { return boom })
	require.ErrorIs(t, err, boom)
	_, err = fx.svc.Get(ctx, cart.ID)
	require.NoError(t, err, "failed consume keeps the cart")

	var seen Cart
	err = fx.svc.Consume(ctx, cart.ID, func(_ context.Context, c Cart, warnings []Warning) error {
		seen = c
		assert.Empty(t, warnings)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ItemCount(seen))

	_, err = fx.svc.Get(ctx, cart.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceSerializesConcurrentAdds(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	p := fx.catalog.put("limited", "10", 5)

	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	okCount := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := fx.svc.AddItem(ctx, cart.ID, p.ID.String(), 1); err == nil {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	view, err := fx.svc.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, okCount)
	assert.Equal(t, 5, view.ItemCount)
}

func TestServiceCatalogFailure(t *testing.T) {
	fx := newServiceFixture(t, Limits{})
	ctx := context.Background()
	cart, err := fx.svc.Create(ctx, "")
	require.NoError(t, err)

	fx.catalog.err = errors.New("db down")
	_, err = fx.svc.AddItem(ctx, cart.ID, uuid.NewString(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

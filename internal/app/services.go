package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/favorites"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Params holds the shared infrastructure the domain services are built on.
// A nil Redis client keeps carts and cart locks in process memory.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *pkgredis.Client
	Registerer prometheus.Registerer
	Clock      func() time.Time
}

// Services is the wired domain layer shared by the API and the CLI.
type Services struct {
	Products   product.Service
	Promotions promotions.Service
	Carts      cart.Service
	Orders     orders.Service
	Favorites  favorites.Service
	Outbox     *outbox.Service
}

func Build(params Params) (*Services, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	cfg := params.Config
	logg := params.Logger
	conn := params.DB.DB()

	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	productRepo := product.NewRepository(conn)
	cartMetrics := metrics.NewCartMetrics(params.Registerer)

	promotionSvc, err := promotions.NewService(promotions.ServiceParams{
		Repo:     promotions.NewRepository(conn),
		DB:       params.DB,
		Products: productRepo,
		Outbox:   outboxSvc,
		Logger:   logg,
		Clock:    params.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("promotions service: %w", err)
	}

	productSvc, err := product.NewService(product.ServiceParams{
		Repo:       productRepo,
		DB:         params.DB,
		Promotions: promotionSvc,
		Logger:     logg,
		Clock:      params.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("product service: %w", err)
	}

	store, locker, err := cartBackends(cfg.Cart, params.Redis, params.Clock)
	if err != nil {
		return nil, err
	}
	cartSvc, err := cart.NewService(cart.ServiceParams{
		Store:    store,
		Locker:   locker,
		Products: productRepo,
		Metrics:  cartMetrics,
		Logger:   logg,
		Limits: cart.Limits{
			MaxLineQty:   cfg.Cart.MaxLineQty,
			MaxLineItems: cfg.Cart.MaxLineItem,
		},
		Clock: params.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:       orders.NewRepository(conn),
		DB:         params.DB,
		Carts:      cartSvc,
		Inventory:  orders.NewInventory(),
		Promotions: promotionSvc,
		Outbox:     outboxSvc,
		Metrics:    cartMetrics,
		Logger:     logg,
		Clock:      params.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	favoriteSvc, err := favorites.NewService(favorites.ServiceParams{
		Repo:    favorites.NewRepository(conn),
		Catalog: productSvc,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("favorites service: %w", err)
	}

	return &Services{
		Products:   productSvc,
		Promotions: promotionSvc,
		Carts:      cartSvc,
		Orders:     orderSvc,
		Favorites:  favoriteSvc,
		Outbox:     outboxSvc,
	}, nil
}

func cartBackends(cfg config.CartConfig, client *pkgredis.Client, clock func() time.Time) (cart.Store, cart.Locker, error) {
	if client == nil {
		return cart.NewMemoryStore(cfg.TTL, clock), cart.NewMemoryLocker(cfg.LockWait), nil
	}
	store, err := cart.NewRedisStore(client, cfg.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("cart store: %w", err)
	}
	locker, err := cart.NewRedisLocker(client, cfg.LockTTL, cfg.LockWait)
	if err != nil {
		return nil, nil, fmt.Errorf("cart locker: %w", err)
	}
	return store, locker, nil
}

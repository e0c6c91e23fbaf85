package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/favorites"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Readiness   map[string]pkgredis.Pinger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer

	Products   product.Service
	Promotions promotions.Service
	Carts      cart.Service
	Orders     orders.Service
	Favorites  favorites.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	idempotent := middleware.Idempotency(deps.Idempotency, logg, middleware.DefaultIdempotencyTTL)
	idempotentCheckout := middleware.Idempotency(deps.Idempotency, logg, middleware.CheckoutIdempotencyTTL)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, deps.Readiness, logg))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Customer(logg, false))

		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/categories", controllers.ProductCategories(deps.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/products/{productId}/pricing", controllers.ProductPricing(deps.Promotions, logg))

		r.Get("/promotions", controllers.PromotionsVigent(deps.Promotions, logg))

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", controllers.CartCreate(deps.Carts, logg))
			r.Route("/{cartId}", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Carts, logg))
				r.Post("/items", controllers.CartAddItem(deps.Carts, logg))
				r.Delete("/items", controllers.CartClear(deps.Carts, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Carts, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Carts, logg))
				r.With(idempotentCheckout).Post("/checkout", controllers.CartCheckout(deps.Orders, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Customer(logg, true))

			r.Get("/favorites", controllers.FavoritesList(deps.Favorites, logg))
			r.Get("/favorites/ids", controllers.FavoritesIDs(deps.Favorites, logg))
			r.Post("/favorites/{productId}/toggle", controllers.FavoritesToggle(deps.Favorites, logg))

			r.Get("/orders", controllers.OrderList(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.With(idempotent).Post("/", controllers.AdminCreateProduct(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", controllers.AdminListPromotions(deps.Promotions, logg))
			r.With(idempotent).Post("/", controllers.AdminCreatePromotion(deps.Promotions, logg))
			r.Get("/{promotionId}", controllers.AdminGetPromotion(deps.Promotions, logg))
			r.Patch("/{promotionId}", controllers.AdminUpdatePromotion(deps.Promotions, logg))
			r.Delete("/{promotionId}", controllers.AdminDeletePromotion(deps.Promotions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.With(idempotent).Patch("/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))
		})
	})

	return r
}

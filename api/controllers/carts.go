package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type cartService interface {
	Create(ctx context.Context, customerID string) (*cartsvc.View, error)
	Get(ctx context.Context, cartID string) (*cartsvc.View, error)
	AddItem(ctx context.Context, cartID, productID string, qty int) (*cartsvc.View, error)
	UpdateItem(ctx context.Context, cartID, productID string, qty int) (*cartsvc.View, error)
	RemoveItem(ctx context.Context, cartID, productID string) (*cartsvc.View, error)
	Clear(ctx context.Context, cartID string) (*cartsvc.View, error)
}

type checkoutService interface {
	Checkout(ctx context.Context, input ordersvc.CheckoutInput) (*ordersvc.OrderDTO, error)
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  *int   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type checkoutRequest struct {
	CustomerName    string `json:"customer_name" validate:"required,max=120"`
	CustomerEmail   string `json:"customer_email" validate:"required,email,max=254"`
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
}

// CartCreate opens an empty cart, owned by the X-Customer-Id shopper when present.
func CartCreate(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Create(r.Context(), middleware.CustomerIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func CartGet(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cartID, ok := cartParam(w, r, logg)
		if !ok {
			return
		}
		view, err := svc.Get(ctx, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem adds quantity (default 1) of a product, merging into an existing line.
func CartAddItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cartID, ok := cartParam(w, r, logg)
		if !ok {
			return
		}
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		qty := 1
		if payload.Quantity != nil {
			qty = *payload.Quantity
		}
		view, err := svc.AddItem(ctx, cartID, strings.TrimSpace(payload.ProductID), qty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartUpdateItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cartID, ok := cartParam(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.PathParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view, err := svc.UpdateItem(ctx, cartID, productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemoveItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cartID, ok := cartParam(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.PathParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view, err := svc.RemoveItem(ctx, cartID, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartClear(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cartID, ok := cartParam(w, r, logg)
		if !ok {
			return
		}
		view, err := svc.Clear(ctx, cartID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartCheckout converts the cart into an order. Stock is re-validated and decremented atomically.
func CartCheckout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cartID, ok := cartParam(w, r, logg)
		if !ok {
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.Checkout(ctx, ordersvc.CheckoutInput{
			CartID:          cartID,
			CustomerID:      middleware.CustomerIDFromContext(ctx),
			CustomerName:    validators.SanitizeString(payload.CustomerName, 120),
			CustomerEmail:   strings.ToLower(strings.TrimSpace(payload.CustomerEmail)),
			ShippingAddress: validators.SanitizeMultiline(payload.ShippingAddress, 500),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func cartParam(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (context.Context, string, bool) {
	ctx := r.Context()
	cartID, err := validators.PathParam(r, "cartId")
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return ctx, "", false
	}
	if logg != nil {
		ctx = logg.WithCartID(ctx, cartID)
	}
	return ctx, cartID, true
}

package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	productsvc "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type productAdmin interface {
	Create(ctx context.Context, input productsvc.CreateInput) (*productsvc.ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateInput) (*productsvc.ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type createProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Category    string          `json:"category" validate:"required,max=64"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Available   *bool           `json:"available,omitempty"`
}

type updateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,min=1,max=64"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gt=0"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Available   *bool            `json:"available,omitempty"`
}

func (r createProductRequest) toInput() productsvc.CreateInput {
	return productsvc.CreateInput{
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		Category:    strings.TrimSpace(r.Category),
		ImageURL:    trimmedPtr(r.ImageURL),
		Price:       r.Price,
		Stock:       r.Stock,
		Available:   r.Available,
	}
}

func (r updateProductRequest) toInput() productsvc.UpdateInput {
	return productsvc.UpdateInput{
		Name:        trimmedPtr(r.Name),
		Description: trimmedPtr(r.Description),
		Category:    trimmedPtr(r.Category),
		ImageURL:    trimmedPtr(r.ImageURL),
		Price:       r.Price,
		Stock:       r.Stock,
		Available:   r.Available,
	}
}

func AdminCreateProduct(svc productAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc productAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminDeleteProduct hard-deletes a product; favorites and promotion links go with it.
func AdminDeleteProduct(svc productAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type promotionAdmin interface {
	Create(ctx context.Context, input promotions.CreateInput) (*promotions.PromotionDTO, error)
	Update(ctx context.Context, id uuid.UUID, input promotions.UpdateInput) (*promotions.PromotionDTO, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*promotions.PromotionDTO, error)
	List(ctx context.Context, includeDeleted bool) ([]promotions.PromotionDTO, error)
}

type createPromotionRequest struct {
	Title       string                  `json:"title" validate:"required,max=200"`
	Description string                  `json:"description" validate:"max=2000"`
	Discount    int                     `json:"discount" validate:"gte=1,lte=100"`
	StartDate   time.Time               `json:"start_date" validate:"required"`
	EndDate     time.Time               `json:"end_date" validate:"required,gtefield=StartDate"`
	Active      *bool                   `json:"active,omitempty"`
	Products    []promotions.ProductRef `json:"products"`
}

type updatePromotionRequest struct {
	Title       *string                  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string                  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Discount    *int                     `json:"discount,omitempty" validate:"omitempty,gte=1,lte=100"`
	StartDate   *time.Time               `json:"start_date,omitempty"`
	EndDate     *time.Time               `json:"end_date,omitempty"`
	Active      *bool                    `json:"active,omitempty"`
	Products    *[]promotions.ProductRef `json:"products,omitempty"`
}

func AdminListPromotions(svc promotionAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeDeleted, err := validators.ParseQueryBool(r, "include_deleted", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), includeDeleted)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"promotions": items})
	}
}

func AdminGetPromotion(svc promotionAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		promo, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

func AdminCreatePromotion(svc promotionAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		promo, err := svc.Create(r.Context(), promotions.CreateInput{
			Title:       strings.TrimSpace(payload.Title),
			Description: strings.TrimSpace(payload.Description),
			Discount:    payload.Discount,
			StartDate:   payload.StartDate.UTC(),
			EndDate:     payload.EndDate.UTC(),
			Active:      payload.Active,
			Products:    payload.Products,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

func AdminUpdatePromotion(svc promotionAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updatePromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		promo, err := svc.Update(r.Context(), id, promotions.UpdateInput{
			Title:       trimmedPtr(payload.Title),
			Description: trimmedPtr(payload.Description),
			Discount:    payload.Discount,
			StartDate:   utcPtr(payload.StartDate),
			EndDate:     utcPtr(payload.EndDate),
			Active:      payload.Active,
			Products:    payload.Products,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}

// AdminDeletePromotion soft-deletes; the row stays for order history and admin listings.
func AdminDeletePromotion(svc promotionAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "promotionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SoftDelete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}

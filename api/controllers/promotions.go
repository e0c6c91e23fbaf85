package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/promotions"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type vigentPromotions interface {
	ListVigent(ctx context.Context) ([]promotions.PromotionDTO, error)
}

// PromotionsVigent lists the promotions usable right now.
func PromotionsVigent(svc vigentPromotions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListVigent(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"promotions": items})
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	customerIDHeader    = "X-Customer-Id"
	maxCustomerIDLength = 128
)

// Customer reads the opaque shopper id from X-Customer-Id. When required is true a
// missing header is rejected; otherwise the request continues anonymously.
func Customer(logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID := strings.TrimSpace(r.Header.Get(customerIDHeader))
			if len(customerID) > maxCustomerIDLength {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Customer-Id header too long"))
				return
			}
			if customerID == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Customer-Id header required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithCustomerID(r.Context(), customerID)
			if logg != nil {
				ctx = logg.WithCustomerID(ctx, customerID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package controllers

import (
	"net/http"

	"github.com/bazaarworks/pincode-pricing-backend/api/responses"
	"github.com/bazaarworks/pincode-pricing-backend/internal/pricing"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
)

// ResolvePrice answers the checkout-time lookup:
// GET /api/v1/pricing/resolve?product_id=...&pincode=...
func ResolvePrice(resolver *pricing.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		quote, err := resolver.Resolve(ctx,
			r.URL.Query().Get("product_id"),
			r.URL.Query().Get("pincode"),
		)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

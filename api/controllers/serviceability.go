package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bazaarworks/pincode-pricing-backend/api/responses"
	"github.com/bazaarworks/pincode-pricing-backend/api/validators"
	"github.com/bazaarworks/pincode-pricing-backend/internal/serviceability"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
)

// Optional fields are pointers so an omitted field falls back to the
// service defaults instead of reading as false/zero.
type serviceabilityUpsertRequest struct {
	Serviceable  bool  `json:"serviceable"`
	DeliveryDays *int  `json:"delivery_days" validate:"omitempty,min=0,max=60"`
	CODAvailable *bool `json:"cod_available"`
}

// ServiceabilityGet reports delivery capability for one pincode. Unknown
// pincodes answer serviceable=false rather than 404; storefronts treat
// both the same way.
func ServiceabilityGet(svc *serviceability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		info, err := svc.Lookup(ctx, chi.URLParam(r, "pincode"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

// ServiceabilityAdminGet returns the stored coverage row, 404 when none
// exists. The back-office console needs to tell "never configured" apart
// from "switched off".
func ServiceabilityAdminGet(svc *serviceability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		info, err := svc.Get(ctx, chi.URLParam(r, "pincode"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

// ServiceabilityUpsert writes delivery capability for one pincode.
func ServiceabilityUpsert(svc *serviceability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req serviceabilityUpsertRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		info, err := svc.Upsert(ctx, serviceability.UpsertParams{
			Pincode:      chi.URLParam(r, "pincode"),
			Serviceable:  req.Serviceable,
			DeliveryDays: req.DeliveryDays,
			CODAvailable: req.CODAvailable,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

// ServiceabilityList returns every deliverable pincode on file.
func ServiceabilityList(svc *serviceability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		codes, err := svc.ServiceablePincodes(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"pincodes": codes})
	}
}

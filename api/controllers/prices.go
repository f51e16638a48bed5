package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bazaarworks/pincode-pricing-backend/api/responses"
	"github.com/bazaarworks/pincode-pricing-backend/api/validators"
	"github.com/bazaarworks/pincode-pricing-backend/internal/pricing"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/enums"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/pagination"
)

const uploadFormField = "file"

// PricesImport accepts a multipart sheet upload and runs it through the
// import pipeline. The response is the import report, whatever mix of
// successes and per-row failures it holds.
func PricesImport(svc *pricing.Service, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	maxBytes := int64(maxUploadMB) << 20
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("upload must be multipart and under %dMB", maxUploadMB)))
			return
		}

		file, header, err := r.FormFile(uploadFormField)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, `multipart field "file" is required`))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeMalformedInput, err, "reading upload"))
			return
		}

		report, err := svc.Import(ctx, header.Filename, data)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// PricesTemplate streams a downloadable sheet in the import layout.
// ?format=csv|xlsx picks the container, ?pincodes=110001,560001 overrides
// the column set.
func PricesTemplate(svc *pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		format := enums.SheetFormatCSV
		if raw := strings.TrimSpace(r.URL.Query().Get("format")); raw != "" {
			parsed, err := enums.ParseSheetFormat(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported format"))
				return
			}
			format = parsed
		}

		pincodes, err := validators.ParseQueryPincodes(r, "pincodes")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		data, err := svc.Template(ctx, format, pincodes)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch format {
		case enums.SheetFormatXLSX:
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="price_template.xlsx"`)
		default:
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="price_template.csv"`)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// PricesList pages through active price records for back-office browsing.
func PricesList(svc *pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.List(ctx, pricing.ListQuery{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: r.URL.Query().Get("cursor"),
			},
			ProductID: r.URL.Query().Get("product_id"),
			Pincode:   r.URL.Query().Get("pincode"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// PricesDeactivateProduct retires every active price for one product.
func PricesDeactivateProduct(svc *pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId is required"))
			return
		}

		retired, err := svc.DeactivateProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id": productID,
			"retired":    retired,
		})
	}
}

package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/pincode"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryPincodes splits a comma-separated pincode list, validating each
// entry. An absent parameter returns nil without error.
func ParseQueryPincodes(r *http.Request, key string) ([]string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}

	var codes []string
	var bad []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.TrimSpace(part)
		if code == "" {
			continue
		}
		if !pincode.Valid(code) {
			bad = append(bad, code)
			continue
		}
		codes = append(codes, code)
	}
	if len(bad) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pincodes must be 6-digit codes").
			WithDetails(map[string]any{"field": key, "invalid": bad})
	}
	return codes, nil
}

package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bazaarworks/pincode-pricing-backend/internal/serviceability"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/metrics"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/money"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/pincode"
)

// QuoteStore is the single read the resolver performs against storage.
type QuoteStore interface {
	GetActive(ctx context.Context, productID, pin string) (*models.PriceRecord, error)
}

// ServiceabilityGate answers whether a pincode can be delivered to at all.
type ServiceabilityGate interface {
	Lookup(ctx context.Context, pin string) (*serviceability.Info, error)
}

// Resolver answers checkout-time price lookups. The serviceability gate
// runs before the price read: a priced but undeliverable pincode is
// unserviceable, never a quote.
type Resolver struct {
	store   QuoteStore
	gate    ServiceabilityGate
	log     *logger.Logger
	metrics *metrics.ResolveMetrics
}

func NewResolver(store QuoteStore, gate ServiceabilityGate, log *logger.Logger, m *metrics.ResolveMetrics) *Resolver {
	return &Resolver{store: store, gate: gate, log: log, metrics: m}
}

// Resolve returns the active quote for one (product, pincode) pair.
func (r *Resolver) Resolve(ctx context.Context, productID, pin string) (*Quote, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if !pincode.Valid(pin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid pincode %q", pin))
	}

	ctx = r.log.WithPincode(r.log.WithProductID(ctx, productID), pin)

	info, err := r.gate.Lookup(ctx, pin)
	if err != nil {
		r.metrics.IncResult("error")
		return nil, err
	}
	if !info.Serviceable {
		r.metrics.IncResult("unserviceable")
		return nil, pkgerrors.New(pkgerrors.CodeUnserviceable, fmt.Sprintf("pincode %s is not serviceable", pin)).
			WithDetails(map[string]any{"pincode": pin})
	}

	record, err := r.store.GetActive(ctx, productID, pin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.metrics.IncResult("price_missing")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("no active price for product %s at pincode %s", productID, pin))
		}
		r.metrics.IncResult("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active price")
	}

	r.metrics.IncResult("resolved")
	return &Quote{
		ProductID:      record.ProductID,
		Pincode:        record.Pincode,
		PricePaise:     record.PricePaise,
		Price:          money.Rupees(record.PricePaise).String(),
		PriceFormatted: money.FormatRupees(record.PricePaise),
		Currency:       money.Currency,
		DeliveryDays:   info.DeliveryDays,
		CODAvailable:   info.CODAvailable,
	}, nil
}

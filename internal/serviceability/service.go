package serviceability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/pincode"
)

// Info is the read-model for one pincode's delivery capability. A pincode
// with no stored row collapses to not serviceable; callers never see the
// difference between "unknown" and "switched off".
type Info struct {
	Pincode      string `json:"pincode"`
	Serviceable  bool   `json:"serviceable"`
	DeliveryDays int    `json:"delivery_days"`
	CODAvailable bool   `json:"cod_available"`
}

// Store is the persistence surface the service needs.
type Store interface {
	Get(ctx context.Context, pin string) (*models.ServiceabilityRecord, error)
	Upsert(ctx context.Context, record *models.ServiceabilityRecord) error
	ListServiceable(ctx context.Context) ([]string, error)
}

// Cache is the optional read-through layer in front of the store. The
// concrete implementation is the Redis client; lookups degrade to the
// database on any cache error.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Service answers serviceability questions for the pricing resolver and
// manages coverage rows for the back office.
type Service struct {
	store Store
	cache Cache
	log   *logger.Logger
	ttl   time.Duration
}

func NewService(store Store, cache Cache, log *logger.Logger, cacheTTL time.Duration) *Service {
	return &Service{store: store, cache: cache, log: log, ttl: cacheTTL}
}

// Lookup returns the delivery capability for one pincode. Invalid codes
// fail validation; unknown codes return a well-formed "not serviceable"
// answer rather than an error.
func (s *Service) Lookup(ctx context.Context, pin string) (*Info, error) {
	if !pincode.Valid(pin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid pincode %q", pin))
	}

	if cached := s.cacheRead(ctx, pin); cached != nil {
		return cached, nil
	}

	record, err := s.store.Get(ctx, pin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			info := &Info{Pincode: pin, Serviceable: false}
			s.cacheWrite(ctx, info)
			return info, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading serviceability")
	}

	info := &Info{
		Pincode:      record.Pincode,
		Serviceable:  record.Serviceable,
		DeliveryDays: record.DeliveryDays,
		CODAvailable: record.CODAvailable,
	}
	s.cacheWrite(ctx, info)
	return info, nil
}

// Get returns the stored coverage row for one pincode, failing with
// NOT_FOUND when none exists. The back office needs the distinction that
// Lookup deliberately hides.
func (s *Service) Get(ctx context.Context, pin string) (*Info, error) {
	if !pincode.Valid(pin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid pincode %q", pin))
	}

	record, err := s.store.Get(ctx, pin)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no serviceability record for pincode %s", pin))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading serviceability")
	}

	return &Info{
		Pincode:      record.Pincode,
		Serviceable:  record.Serviceable,
		DeliveryDays: record.DeliveryDays,
		CODAvailable: record.CODAvailable,
	}, nil
}

// DefaultDeliveryDays applies when a coverage write omits the estimate.
const DefaultDeliveryDays = 3

// UpsertParams carries one coverage write. DeliveryDays and CODAvailable
// are optional; nil means "take the default" (3 days, COD on), which is
// not the same as an explicit zero or false.
type UpsertParams struct {
	Pincode      string
	Serviceable  bool
	DeliveryDays *int
	CODAvailable *bool
}

// Upsert writes coverage for one pincode and drops its cache entry so the
// next lookup sees the new answer. Explicit false and zero values persist
// as given.
func (s *Service) Upsert(ctx context.Context, params UpsertParams) (*Info, error) {
	if !pincode.Valid(params.Pincode) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid pincode %q", params.Pincode))
	}

	info := Info{
		Pincode:      params.Pincode,
		Serviceable:  params.Serviceable,
		DeliveryDays: DefaultDeliveryDays,
		CODAvailable: true,
	}
	if params.DeliveryDays != nil {
		info.DeliveryDays = *params.DeliveryDays
	}
	if params.CODAvailable != nil {
		info.CODAvailable = *params.CODAvailable
	}
	if info.DeliveryDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery_days must not be negative")
	}

	record := &models.ServiceabilityRecord{
		Pincode:      info.Pincode,
		DeliveryDays: info.DeliveryDays,
		CODAvailable: info.CODAvailable,
		Serviceable:  info.Serviceable,
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving serviceability")
	}

	s.cacheDrop(ctx, info.Pincode)
	s.log.Info(s.log.WithFields(s.log.WithPincode(ctx, info.Pincode), map[string]any{
		"serviceable":   info.Serviceable,
		"delivery_days": info.DeliveryDays,
	}), "serviceability updated")
	return &info, nil
}

// ServiceablePincodes lists every deliverable pincode on file.
func (s *Service) ServiceablePincodes(ctx context.Context) ([]string, error) {
	codes, err := s.store.ListServiceable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing serviceable pincodes")
	}
	return codes, nil
}

func (s *Service) cacheKey(pin string) string {
	return s.cache.CacheKey("serviceability", pin)
}

func (s *Service) cacheRead(ctx context.Context, pin string) *Info {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(pin))
	if err != nil {
		return nil
	}
	var info Info
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil
	}
	return &info
}

func (s *Service) cacheWrite(ctx context.Context, info *Info) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(info.Pincode), string(payload), s.ttl); err != nil {
		s.log.Warn(s.log.WithPincode(ctx, info.Pincode), "serviceability cache write failed")
	}
}

func (s *Service) cacheDrop(ctx context.Context, pin string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(pin)); err != nil {
		s.log.Warn(s.log.WithPincode(ctx, pin), "serviceability cache invalidation failed")
	}
}

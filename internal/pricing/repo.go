package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/bazaarworks/pincode-pricing-backend/pkg/db"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/pagination"
)

// retryBackoff spaces out re-reads when an upsert loses a write race.
const retryBackoff = 25 * time.Millisecond

// Repository persists price records. The one-active-price-per-pair
// invariant lives in the partial unique index, not here; this code only
// reacts when the index rejects a write.
type Repository struct {
	db      *gorm.DB
	retries uint64
}

// NewRepository builds a repository tied to the provided GORM DB.
// upsertRetries bounds how often a raced upsert is retried before the
// candidate is reported as conflicted.
func NewRepository(conn *gorm.DB, upsertRetries int) *Repository {
	if upsertRetries < 1 {
		upsertRetries = 1
	}
	return &Repository{db: conn, retries: uint64(upsertRetries)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, retries: r.retries}
}

// GetActive loads the single active price record for a (product, pincode)
// pair. gorm.ErrRecordNotFound passes through for the caller to classify.
func (r *Repository) GetActive(ctx context.Context, productID, pin string) (*models.PriceRecord, error) {
	var record models.PriceRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND pincode = ? AND active = ?", productID, pin, true).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// BulkUpsert applies candidates in row order, last write winning within the
// batch. Candidates that keep losing write races or fail storage-side are
// collected into the result; the rest of the batch continues.
func (r *Repository) BulkUpsert(ctx context.Context, candidates []Candidate) UpsertResult {
	var result UpsertResult
	for _, candidate := range candidates {
		created, err := r.upsertOne(ctx, candidate)
		if err != nil {
			result.Errors = append(result.Errors, RowError{
				Row:       candidate.Row,
				ProductID: candidate.ProductID,
				Pincode:   candidate.Pincode,
				Reason:    upsertFailureReason(err),
			})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result
}

func (r *Repository) upsertOne(ctx context.Context, candidate Candidate) (bool, error) {
	var created bool
	backoff := retry.WithMaxRetries(r.retries, retry.NewConstant(retryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var existing models.PriceRecord
		err := r.db.WithContext(ctx).
			Where("product_id = ? AND pincode = ? AND active = ?", candidate.ProductID, candidate.Pincode, true).
			First(&existing).Error

		switch {
		case err == nil:
			res := r.db.WithContext(ctx).
				Model(&models.PriceRecord{}).
				Where("id = ? AND active = ?", existing.ID, true).
				Update("price_paise", candidate.PricePaise)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// The row was deactivated between read and write.
				return retry.RetryableError(fmt.Errorf("active price row disappeared"))
			}
			created = false
			return nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			record := models.PriceRecord{
				ID:         uuid.New(),
				ProductID:  candidate.ProductID,
				Pincode:    candidate.Pincode,
				PricePaise: candidate.PricePaise,
				Active:     true,
			}
			if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
				if db.IsUniqueViolation(err, models.ActivePricePairConstraint) {
					// A concurrent import inserted first; re-read and update.
					return retry.RetryableError(err)
				}
				return err
			}
			created = true
			return nil

		default:
			return err
		}
	})

	return created, err
}

func upsertFailureReason(err error) string {
	if db.IsUniqueViolation(err, models.ActivePricePairConstraint) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "write race on active price").Error()
	}
	return err.Error()
}

// DeactivateByProduct soft-deletes every active price for a product,
// the cascade for catalog removals. Returns how many rows were retired.
func (r *Repository) DeactivateByProduct(ctx context.Context, productID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PriceRecord{}).
		Where("product_id = ? AND active = ?", productID, true).
		Update("active", false)
	return res.RowsAffected, res.Error
}

// ActivePriceMap returns productID → pincode → paise for the requested
// pincodes, used to pre-fill template downloads.
func (r *Repository) ActivePriceMap(ctx context.Context, pincodes []string) (map[string]map[string]int64, error) {
	if len(pincodes) == 0 {
		return map[string]map[string]int64{}, nil
	}

	var rows []models.PriceRecord
	err := r.db.WithContext(ctx).
		Where("active = ? AND pincode IN ?", true, pincodes).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]int64)
	for _, row := range rows {
		byPin := out[row.ProductID]
		if byPin == nil {
			byPin = make(map[string]int64)
			out[row.ProductID] = byPin
		}
		byPin[row.Pincode] = row.PricePaise
	}
	return out, nil
}

// DistinctActivePincodes lists every pincode that currently has at least
// one active price, sorted ascending.
func (r *Repository) DistinctActivePincodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.PriceRecord{}).
		Where("active = ?", true).
		Distinct("pincode").
		Order("pincode ASC").
		Pluck("pincode", &codes).Error
	return codes, err
}

// ListQuery filters and paginates the admin price listing.
type ListQuery struct {
	Pagination pagination.Params
	ProductID  string
	Pincode    string
}

// ListResult is one page of active price records.
type ListResult struct {
	Records    []models.PriceRecord
	NextCursor string
}

// ListActive returns active price records ordered by (created_at, id)
// descending with cursor pagination.
func (r *Repository) ListActive(ctx context.Context, query ListQuery) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.db.WithContext(ctx).
		Model(&models.PriceRecord{}).
		Where("active = ?", true)

	if pid := strings.TrimSpace(query.ProductID); pid != "" {
		qb = qb.Where("product_id = ?", pid)
	}
	if pin := strings.TrimSpace(query.Pincode); pin != "" {
		qb = qb.Where("pincode = ?", pin)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.PriceRecord
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	result := &ListResult{Records: rows}
	if len(rows) > pageSize {
		result.Records = rows[:pageSize]
		last := result.Records[len(result.Records)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return result, nil
}

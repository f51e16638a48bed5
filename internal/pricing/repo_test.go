package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/pagination"
)

func setupPricingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	priceRecords := `
CREATE TABLE IF NOT EXISTS price_records (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  pincode TEXT NOT NULL,
  price_paise INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	activePairIdx := `
CREATE UNIQUE INDEX IF NOT EXISTS price_records_active_pair_idx
  ON price_records (product_id, pincode) WHERE active;`
	require.NoError(t, conn.Exec(priceRecords).Error)
	require.NoError(t, conn.Exec(activePairIdx).Error)
	require.NoError(t, conn.Exec(`DELETE FROM price_records`).Error)
	return conn
}

func seedPrice(t *testing.T, conn *gorm.DB, productID, pin string, paise int64, active bool) models.PriceRecord {
	t.Helper()

	record := models.PriceRecord{
		ID:         uuid.New(),
		ProductID:  productID,
		Pincode:    pin,
		PricePaise: paise,
		Active:     active,
	}
	require.NoError(t, conn.Create(&record).Error)
	return record
}

func TestBulkUpsertCreatesAndUpdates(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)
	ctx := context.Background()

	seedPrice(t, conn, "prod_1", "110001", 100000, true)

	result := repo.BulkUpsert(ctx, []Candidate{
		{Row: 2, ProductID: "prod_1", Pincode: "110001", PricePaise: 299900},
		{Row: 2, ProductID: "prod_1", Pincode: "560001", PricePaise: 199900},
		{Row: 3, ProductID: "prod_2", Pincode: "110001", PricePaise: 49900},
	})

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, result.Errors)

	updated, err := repo.GetActive(ctx, "prod_1", "110001")
	require.NoError(t, err)
	assert.Equal(t, int64(299900), updated.PricePaise)
	assert.True(t, updated.Active)
}

func TestBulkUpsertLastWriteWinsWithinBatch(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)
	ctx := context.Background()

	result := repo.BulkUpsert(ctx, []Candidate{
		{Row: 2, ProductID: "prod_1", Pincode: "110001", PricePaise: 100000},
		{Row: 5, ProductID: "prod_1", Pincode: "110001", PricePaise: 250000},
	})

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)

	record, err := repo.GetActive(ctx, "prod_1", "110001")
	require.NoError(t, err)
	assert.Equal(t, int64(250000), record.PricePaise)

	var count int64
	require.NoError(t, conn.Model(&models.PriceRecord{}).
		Where("product_id = ? AND pincode = ? AND active = ?", "prod_1", "110001", true).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBulkUpsertIgnoresInactiveRows(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)
	ctx := context.Background()

	retired := seedPrice(t, conn, "prod_1", "110001", 100000, false)

	result := repo.BulkUpsert(ctx, []Candidate{
		{Row: 2, ProductID: "prod_1", Pincode: "110001", PricePaise: 299900},
	})

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Updated)

	var kept models.PriceRecord
	require.NoError(t, conn.First(&kept, "id = ?", retired.ID).Error)
	assert.Equal(t, int64(100000), kept.PricePaise)
	assert.False(t, kept.Active)
}

func TestGetActiveNotFound(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)

	seedPrice(t, conn, "prod_1", "110001", 100000, false)

	_, err := repo.GetActive(context.Background(), "prod_1", "110001")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeactivateByProduct(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)
	ctx := context.Background()

	seedPrice(t, conn, "prod_1", "110001", 100000, true)
	seedPrice(t, conn, "prod_1", "560001", 200000, true)
	seedPrice(t, conn, "prod_2", "110001", 300000, true)

	retired, err := repo.DeactivateByProduct(ctx, "prod_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), retired)

	_, err = repo.GetActive(ctx, "prod_1", "110001")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	untouched, err := repo.GetActive(ctx, "prod_2", "110001")
	require.NoError(t, err)
	assert.Equal(t, int64(300000), untouched.PricePaise)
}

func TestActivePriceMap(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)
	ctx := context.Background()

	seedPrice(t, conn, "prod_1", "110001", 100000, true)
	seedPrice(t, conn, "prod_1", "560001", 200000, true)
	seedPrice(t, conn, "prod_2", "110001", 300000, false)

	prices, err := repo.ActivePriceMap(ctx, []string{"110001", "560001"})
	require.NoError(t, err)

	require.Contains(t, prices, "prod_1")
	assert.Equal(t, int64(100000), prices["prod_1"]["110001"])
	assert.Equal(t, int64(200000), prices["prod_1"]["560001"])
	assert.NotContains(t, prices, "prod_2")

	empty, err := repo.ActivePriceMap(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDistinctActivePincodes(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)

	seedPrice(t, conn, "prod_1", "560001", 100000, true)
	seedPrice(t, conn, "prod_2", "110001", 200000, true)
	seedPrice(t, conn, "prod_3", "110001", 300000, true)
	seedPrice(t, conn, "prod_4", "700001", 400000, false)

	codes, err := repo.DistinctActivePincodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"110001", "560001"}, codes)
}

func TestListActivePaginates(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		pin := []string{"110001", "110002", "110003", "110004", "110005"}[i]
		seedPrice(t, conn, "prod_1", pin, int64(100+i), true)
	}
	seedPrice(t, conn, "prod_2", "560001", 999, true)

	first, err := repo.ListActive(ctx, ListQuery{
		Pagination: pagination.Params{Limit: 4},
		ProductID:  "prod_1",
	})
	require.NoError(t, err)
	assert.Len(t, first.Records, 4)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListActive(ctx, ListQuery{
		Pagination: pagination.Params{Limit: 4, Cursor: first.NextCursor},
		ProductID:  "prod_1",
	})
	require.NoError(t, err)
	assert.Len(t, second.Records, 1)
	assert.Empty(t, second.NextCursor)

	seen := map[uuid.UUID]bool{}
	for _, rec := range append(first.Records, second.Records...) {
		assert.Equal(t, "prod_1", rec.ProductID)
		assert.False(t, seen[rec.ID])
		seen[rec.ID] = true
	}
}

func TestListActiveRejectsBadCursor(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)

	_, err := repo.ListActive(context.Background(), ListQuery{
		Pagination: pagination.Params{Cursor: "not-base64!!"},
	})
	assert.Error(t, err)
}

func TestListActiveFiltersByPincode(t *testing.T) {
	conn := setupPricingTestDB(t)
	repo := NewRepository(conn, 3)

	seedPrice(t, conn, "prod_1", "110001", 100000, true)
	seedPrice(t, conn, "prod_2", "560001", 200000, true)

	page, err := repo.ListActive(context.Background(), ListQuery{
		Pagination: pagination.Params{Limit: 10},
		Pincode:    "560001",
	})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "prod_2", page.Records[0].ProductID)
}

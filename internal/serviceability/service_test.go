package serviceability

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
)

func setupServiceabilityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS serviceability_records (
  pincode TEXT PRIMARY KEY,
  delivery_days INTEGER NOT NULL DEFAULT 3,
  cod_available INTEGER NOT NULL DEFAULT 1,
  serviceable INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	require.NoError(t, conn.Exec(`DELETE FROM serviceability_records`).Error)
	return conn
}

// memoryCache is a map-backed stand-in for the Redis client.
type memoryCache struct {
	values map[string]string
	gets   int
	hits   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.gets++
	if v, ok := c.values[key]; ok {
		c.hits++
		return v, nil
	}
	return "", assert.AnError
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.values[key] = value.(string)
	return nil
}

func (c *memoryCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *memoryCache) CacheKey(parts ...string) string {
	return strings.Join(append([]string{"test"}, parts...), ":")
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func newTestService(t *testing.T, cache Cache) (*Service, *gorm.DB) {
	t.Helper()
	conn := setupServiceabilityTestDB(t)
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewService(NewRepository(conn), cache, log, time.Minute), conn
}

func TestLookupUnknownPincodeIsNotServiceable(t *testing.T) {
	svc, _ := newTestService(t, nil)

	info, err := svc.Lookup(context.Background(), "110001")
	require.NoError(t, err)
	assert.False(t, info.Serviceable)
	assert.Equal(t, "110001", info.Pincode)
}

func TestLookupRejectsInvalidPincode(t *testing.T) {
	svc, _ := newTestService(t, nil)

	for _, pin := range []string{"", "1100", "11000a", "1100011"} {
		_, err := svc.Lookup(context.Background(), pin)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "pin %q", pin)
	}
}

func TestLookupReturnsStoredCapability(t *testing.T) {
	svc, conn := newTestService(t, nil)

	require.NoError(t, conn.Create(&models.ServiceabilityRecord{
		Pincode: "560001", DeliveryDays: 2, CODAvailable: false, Serviceable: true,
	}).Error)

	info, err := svc.Lookup(context.Background(), "560001")
	require.NoError(t, err)
	assert.True(t, info.Serviceable)
	assert.Equal(t, 2, info.DeliveryDays)
	assert.False(t, info.CODAvailable)
}

func TestLookupUsesCacheOnSecondRead(t *testing.T) {
	cache := newMemoryCache()
	svc, conn := newTestService(t, cache)
	ctx := context.Background()

	require.NoError(t, conn.Create(&models.ServiceabilityRecord{
		Pincode: "560001", DeliveryDays: 2, CODAvailable: true, Serviceable: true,
	}).Error)

	_, err := svc.Lookup(ctx, "560001")
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits)

	info, err := svc.Lookup(ctx, "560001")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.True(t, info.Serviceable)
	assert.Equal(t, 2, info.DeliveryDays)
}

func TestUpsertInvalidatesCache(t *testing.T) {
	cache := newMemoryCache()
	svc, _ := newTestService(t, cache)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, UpsertParams{Pincode: "110001", Serviceable: true, DeliveryDays: intPtr(3), CODAvailable: boolPtr(true)})
	require.NoError(t, err)

	info, err := svc.Lookup(ctx, "110001")
	require.NoError(t, err)
	assert.True(t, info.Serviceable)

	_, err = svc.Upsert(ctx, UpsertParams{Pincode: "110001", Serviceable: false, DeliveryDays: intPtr(3), CODAvailable: boolPtr(true)})
	require.NoError(t, err)

	info, err = svc.Lookup(ctx, "110001")
	require.NoError(t, err)
	assert.False(t, info.Serviceable, "stale cache must not survive an upsert")
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, UpsertParams{Pincode: "700001", Serviceable: true, DeliveryDays: intPtr(5), CODAvailable: boolPtr(false)})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, UpsertParams{Pincode: "700001", Serviceable: true, DeliveryDays: intPtr(2), CODAvailable: boolPtr(true)})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.ServiceabilityRecord{}).Where("pincode = ?", "700001").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var record models.ServiceabilityRecord
	require.NoError(t, conn.First(&record, "pincode = ?", "700001").Error)
	assert.Equal(t, 2, record.DeliveryDays)
	assert.True(t, record.CODAvailable)
}

func TestUpsertValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, UpsertParams{Pincode: "12", Serviceable: true})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Upsert(ctx, UpsertParams{Pincode: "110001", DeliveryDays: intPtr(-1)})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestUpsertPersistsSwitchedOff(t *testing.T) {
	svc, conn := newTestService(t, nil)

	_, err := svc.Upsert(context.Background(), UpsertParams{
		Pincode:      "400001",
		Serviceable:  false,
		DeliveryDays: intPtr(2),
		CODAvailable: boolPtr(false),
	})
	require.NoError(t, err)

	var record models.ServiceabilityRecord
	require.NoError(t, conn.First(&record, "pincode = ?", "400001").Error)
	assert.False(t, record.Serviceable, "explicit false must reach the row")
	assert.False(t, record.CODAvailable)
	assert.Equal(t, 2, record.DeliveryDays)
}

func TestUpsertAppliesDefaultsWhenOmitted(t *testing.T) {
	svc, conn := newTestService(t, nil)

	info, err := svc.Upsert(context.Background(), UpsertParams{Pincode: "600001", Serviceable: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultDeliveryDays, info.DeliveryDays)
	assert.True(t, info.CODAvailable)

	var record models.ServiceabilityRecord
	require.NoError(t, conn.First(&record, "pincode = ?", "600001").Error)
	assert.Equal(t, DefaultDeliveryDays, record.DeliveryDays)
	assert.True(t, record.CODAvailable)
	assert.True(t, record.Serviceable)
}

func TestGetDistinguishesMissingFromSwitchedOff(t *testing.T) {
	svc, conn := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "110001")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, conn.Create(&models.ServiceabilityRecord{
		Pincode: "110001", DeliveryDays: 3, CODAvailable: true, Serviceable: false,
	}).Error)

	info, err := svc.Get(ctx, "110001")
	require.NoError(t, err)
	assert.False(t, info.Serviceable)

	_, err = svc.Get(ctx, "nope")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceablePincodes(t *testing.T) {
	svc, conn := newTestService(t, nil)

	require.NoError(t, conn.Create(&models.ServiceabilityRecord{Pincode: "560001", Serviceable: true, DeliveryDays: 3}).Error)
	require.NoError(t, conn.Create(&models.ServiceabilityRecord{Pincode: "110001", Serviceable: true, DeliveryDays: 3}).Error)
	require.NoError(t, conn.Create(&models.ServiceabilityRecord{Pincode: "400001", Serviceable: false, DeliveryDays: 3}).Error)

	codes, err := svc.ServiceablePincodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"110001", "560001"}, codes)
}

package pricing

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bazaarworks/pincode-pricing-backend/internal/catalog"
	"github.com/bazaarworks/pincode-pricing-backend/internal/tabular"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/enums"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	conn := setupPricingTestDB(t)

	products := `
CREATE TABLE IF NOT EXISTS products (
  product_id TEXT PRIMARY KEY,
  sku TEXT NOT NULL,
  title TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(products).Error)
	require.NoError(t, conn.Exec(`DELETE FROM products`).Error)

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc := NewService(NewRepository(conn, 3), catalog.NewRepository(conn), log, nil, 50)
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, productID, sku, title string) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Product{
		ProductID: productID, SKU: sku, Title: title, IsActive: true,
	}).Error)
}

func TestServiceImportCSV(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	sheet := strings.Join([]string{
		"sku,product_id,product_title,110001,560001",
		"SHIRT-001,prod_1,Red Shirt,2999,1999",
		"SHIRT-002,prod_2,Blue Shirt,,149.50",
	}, "\n")

	report, err := svc.Import(ctx, "prices.csv", []byte(sheet))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.TotalRowsProcessed)
	assert.Equal(t, 0, report.RowsSkipped)
	assert.Empty(t, report.Errors)

	record, err := svc.store.(*Repository).GetActive(ctx, "prod_2", "560001")
	require.NoError(t, err)
	assert.Equal(t, int64(14950), record.PricePaise)
}

func TestServiceImportReimportUpdatesInPlace(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	first := "sku,product_id,product_title,110001\nSHIRT-001,prod_1,Red Shirt,2999"
	_, err := svc.Import(ctx, "prices.csv", []byte(first))
	require.NoError(t, err)

	second := "sku,product_id,product_title,110001\nSHIRT-001,prod_1,Red Shirt,3499"
	report, err := svc.Import(ctx, "prices.csv", []byte(second))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)

	var count int64
	require.NoError(t, conn.Model(&models.PriceRecord{}).
		Where("product_id = ? AND pincode = ?", "prod_1", "110001").
		Count(&count).Error)
	assert.Equal(t, int64(1), count, "re-import must update, not stack rows")

	record, err := svc.store.(*Repository).GetActive(ctx, "prod_1", "110001")
	require.NoError(t, err)
	assert.Equal(t, int64(349900), record.PricePaise)
}

func TestServiceImportRejectsBrokenHeader(t *testing.T) {
	svc, _ := setupService(t)

	sheet := "sku,product,product_title,110001\nSHIRT-001,prod_1,Red Shirt,2999"
	_, err := svc.Import(context.Background(), "prices.csv", []byte(sheet))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeSchema))
}

func TestServiceImportRejectsEmptyFile(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Import(context.Background(), "prices.csv", []byte("sku,product_id,product_title,110001"))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMalformedInput))
}

func TestServiceImportReportsBadCells(t *testing.T) {
	svc, _ := setupService(t)

	sheet := strings.Join([]string{
		"sku,product_id,product_title,110001,560001",
		"SHIRT-001,prod_1,Red Shirt,notaprice,1999",
		"SHIRT-002,,Blue Shirt,100,100",
	}, "\n")

	report, err := svc.Import(context.Background(), "prices.csv", []byte(sheet))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.RowsSkipped)
	require.NotEmpty(t, report.Errors)
}

func TestServiceImportTSV(t *testing.T) {
	svc, _ := setupService(t)

	sheet := "sku\tproduct_id\tproduct_title\t110001\nSHIRT-001\tprod_1\tRed Shirt\t2999"
	report, err := svc.Import(context.Background(), "prices.tsv", []byte(sheet))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
}

func TestServiceTemplateCSV(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	seedProduct(t, conn, "prod_1", "SHIRT-001", "Red Shirt")
	seedProduct(t, conn, "prod_2", "SHIRT-002", "Blue Shirt")
	seedPrice(t, conn, "prod_1", "110001", 299900, true)

	data, err := svc.Template(ctx, enums.SheetFormatCSV, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "sku,product_id,product_title,110001", lines[0])
	assert.Equal(t, "SHIRT-001,prod_1,Red Shirt,2999", lines[1])
	assert.Equal(t, "SHIRT-002,prod_2,Blue Shirt,", lines[2])
}

func TestServiceTemplateDefaultsOnEmptyDatabase(t *testing.T) {
	svc, conn := setupService(t)

	seedProduct(t, conn, "prod_1", "SHIRT-001", "Red Shirt")

	data, err := svc.Template(context.Background(), enums.SheetFormatCSV, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "sku,product_id,product_title,110001,400001,560001,600001,700001", lines[0])
}

func TestServiceTemplateXLSXRoundTrips(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	seedProduct(t, conn, "prod_1", "SHIRT-001", "Red Shirt")
	seedPrice(t, conn, "prod_1", "560001", 14950, true)

	data, err := svc.Template(ctx, enums.SheetFormatXLSX, nil)
	require.NoError(t, err)

	sheet, err := tabular.Parse(data, enums.SheetFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "product_id", "product_title", "560001"}, sheet.Header)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "149.5", sheet.Rows[0][3])
}

func TestServiceListFormatsPrices(t *testing.T) {
	svc, conn := setupService(t)

	seedPrice(t, conn, "prod_1", "110001", 299900, true)

	page, err := svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2999", page.Items[0].Price)
	assert.Equal(t, "INR", page.Items[0].Currency)
}

func TestServiceDeactivateProduct(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	seedProduct(t, conn, "prod_1", "SHIRT-001", "Red Shirt")
	seedPrice(t, conn, "prod_1", "110001", 299900, true)
	seedPrice(t, conn, "prod_1", "560001", 199900, true)

	retired, err := svc.DeactivateProduct(ctx, "prod_1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), retired)

	_, err = svc.DeactivateProduct(ctx, "prod_unknown")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

package pricing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bazaarworks/pincode-pricing-backend/internal/tabular"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/db/models"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/enums"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/logger"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/metrics"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/money"
)

// defaultTemplatePincodes seeds template downloads on a fresh install,
// before any price has been imported. Metro GPO pincodes.
var defaultTemplatePincodes = []string{"110001", "400001", "560001", "600001", "700001"}

// PriceStore is the storage surface the service needs for price records.
type PriceStore interface {
	BulkUpsert(ctx context.Context, candidates []Candidate) UpsertResult
	ActivePriceMap(ctx context.Context, pincodes []string) (map[string]map[string]int64, error)
	DistinctActivePincodes(ctx context.Context) ([]string, error)
	ListActive(ctx context.Context, query ListQuery) (*ListResult, error)
	DeactivateByProduct(ctx context.Context, productID string) (int64, error)
}

// CatalogStore reads the product mirror for template rows and cascade checks.
type CatalogStore interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	Exists(ctx context.Context, productID string) (bool, error)
}

// Service runs the bulk price import pipeline and its adjacent admin
// operations.
type Service struct {
	store           PriceStore
	catalog         CatalogStore
	log             *logger.Logger
	metrics         *metrics.ImportMetrics
	maxReportErrors int
}

func NewService(store PriceStore, catalog CatalogStore, log *logger.Logger, m *metrics.ImportMetrics, maxReportErrors int) *Service {
	if maxReportErrors <= 0 {
		maxReportErrors = 50
	}
	return &Service{
		store:           store,
		catalog:         catalog,
		log:             log,
		metrics:         m,
		maxReportErrors: maxReportErrors,
	}
}

// Import runs one uploaded sheet through parse, normalize and bulk upsert
// and reports what happened. Header problems reject the whole file; row,
// cell and storage problems are reported per item while the rest of the
// sheet lands.
func (s *Service) Import(ctx context.Context, filename string, data []byte) (*ImportReport, error) {
	format := tabular.DetectFormat(filename, data)
	started := time.Now()
	defer func() {
		s.metrics.ObserveDuration(format.String(), time.Since(started))
	}()

	ctx = s.log.WithFields(ctx, map[string]any{"filename": filename, "format": format.String()})

	sheet, err := tabular.Parse(data, format)
	if err != nil {
		s.metrics.IncOutcome("rejected")
		s.log.Warn(s.log.WithField(ctx, "reason", err.Error()), "price sheet rejected before normalization")
		return nil, err
	}

	norm, err := Normalize(sheet, s.maxReportErrors)
	if err != nil {
		s.metrics.IncOutcome("rejected")
		s.log.Warn(s.log.WithField(ctx, "reason", err.Error()), "price sheet header rejected")
		return nil, err
	}

	upsert := s.store.BulkUpsert(ctx, norm.Candidates)

	report := buildReport(norm, upsert, s.maxReportErrors)

	s.metrics.AddRows("processed", norm.RowsTotal-norm.RowsSkipped)
	s.metrics.AddRows("skipped", norm.RowsSkipped)
	s.metrics.AddCellsSkipped(norm.CellsBlank + norm.CellsInvalid)
	s.metrics.IncOutcome("completed")

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"imported":     report.Imported,
		"failed":       report.Failed,
		"rows_total":   report.TotalRowsProcessed,
		"rows_skipped": report.RowsSkipped,
	}), "price sheet import completed")

	return report, nil
}

func buildReport(norm *NormalizeResult, upsert UpsertResult, maxErrors int) *ImportReport {
	report := &ImportReport{
		Imported:           upsert.Created + upsert.Updated,
		Failed:             norm.CellsInvalid + len(upsert.Errors),
		TotalRowsProcessed: norm.RowsTotal,
		RowsSkipped:        norm.RowsSkipped,
	}

	for _, diag := range norm.Diagnostics {
		if len(report.Errors) >= maxErrors {
			return report
		}
		report.Errors = append(report.Errors, diag)
	}
	for _, rowErr := range upsert.Errors {
		if len(report.Errors) >= maxErrors {
			return report
		}
		report.Errors = append(report.Errors,
			fmt.Sprintf("row %d, product %s, pincode %s: %s", rowErr.Row, rowErr.ProductID, rowErr.Pincode, rowErr.Reason))
	}
	return report
}

// Template renders a downloadable sheet in the template layout: catalog
// products as rows, pincode columns, current active prices pre-filled in
// rupees. With no pincodes requested it uses every pincode that has a
// price on file, or a metro starter set on an empty database.
func (s *Service) Template(ctx context.Context, format enums.SheetFormat, pincodes []string) ([]byte, error) {
	if len(pincodes) == 0 {
		onFile, err := s.store.DistinctActivePincodes(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing priced pincodes")
		}
		pincodes = onFile
	}
	if len(pincodes) == 0 {
		pincodes = defaultTemplatePincodes
	}

	products, err := s.catalog.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing catalog products")
	}
	prices, err := s.store.ActivePriceMap(ctx, pincodes)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active prices")
	}

	rows := templateRows(products, pincodes, prices)

	switch format {
	case enums.SheetFormatXLSX:
		return renderXLSX(rows)
	case enums.SheetFormatCSV:
		return renderCSV(rows)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported template format %q", format))
	}
}

func templateRows(products []models.Product, pincodes []string, prices map[string]map[string]int64) [][]string {
	header := append([]string{"sku", "product_id", "product_title"}, pincodes...)
	rows := [][]string{header}

	for _, product := range products {
		row := []string{product.SKU, product.ProductID, product.Title}
		for _, pin := range pincodes {
			cell := ""
			if paise, ok := prices[product.ProductID][pin]; ok {
				cell = money.Rupees(paise).String()
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

func renderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv template")
	}
	return buf.Bytes(), nil
}

func renderXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "addressing template cell")
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing template row")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing xlsx template")
	}
	return buf.Bytes(), nil
}

// PriceView is one listed price record with its display rendering.
type PriceView struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Pincode    string    `json:"pincode"`
	PricePaise int64     `json:"price_paise"`
	Price      string    `json:"price"`
	Currency   string    `json:"currency"`
	UpdatedAt  time.Time `json:"updated_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// PricePage is one cursor page of the admin price listing.
type PricePage struct {
	Items      []PriceView `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// List returns a page of active prices for back-office browsing.
func (s *Service) List(ctx context.Context, query ListQuery) (*PricePage, error) {
	page, err := s.store.ListActive(ctx, query)
	if err != nil {
		return nil, err
	}

	out := &PricePage{NextCursor: page.NextCursor, Items: make([]PriceView, 0, len(page.Records))}
	for _, record := range page.Records {
		out.Items = append(out.Items, PriceView{
			ID:         record.ID.String(),
			ProductID:  record.ProductID,
			Pincode:    record.Pincode,
			PricePaise: record.PricePaise,
			Price:      money.Rupees(record.PricePaise).String(),
			Currency:   money.Currency,
			UpdatedAt:  record.UpdatedAt,
			CreatedAt:  record.CreatedAt,
		})
	}
	return out, nil
}

// DeactivateProduct retires every active price for a product, the cascade
// used when the catalog drops it. Unknown products fail with NOT_FOUND so
// a typo cannot silently deactivate nothing.
func (s *Service) DeactivateProduct(ctx context.Context, productID string) (int64, error) {
	known, err := s.catalog.Exists(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking catalog")
	}
	if !known {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not in catalog", productID))
	}

	retired, err := s.store.DeactivateByProduct(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating prices")
	}

	s.log.Info(s.log.WithFields(s.log.WithProductID(ctx, productID), map[string]any{
		"retired": retired,
	}), "product prices deactivated")
	return retired, nil
}

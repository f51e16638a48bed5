package pricing

import (
	"fmt"
	"strings"

	"github.com/bazaarworks/pincode-pricing-backend/internal/tabular"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/money"
	"github.com/bazaarworks/pincode-pricing-backend/pkg/pincode"
)

// The first three sheet columns are fixed identifiers; everything after
// them is a pincode column. product_title exists for the operator reading
// the sheet and is never consumed downstream.
var fixedHeader = []string{"sku", "product_id", "product_title"}

const (
	colSKU = iota
	colProductID
	colProductTitle
	firstPincodeCol
)

// Normalize interprets a parsed sheet against the template contract and
// flattens it into upsert candidates. Header problems reject the whole
// sheet with a SCHEMA_ERROR before any row is read; row and cell problems
// are counted and skipped.
func Normalize(sheet *tabular.Sheet, maxDiagnostics int) (*NormalizeResult, error) {
	if err := validateHeader(sheet.Header); err != nil {
		return nil, err
	}
	pincodes := sheet.Header[firstPincodeCol:]

	result := &NormalizeResult{RowsTotal: len(sheet.Rows)}
	addDiagnostic := func(format string, args ...any) {
		if maxDiagnostics <= 0 || len(result.Diagnostics) < maxDiagnostics {
			result.Diagnostics = append(result.Diagnostics, fmt.Sprintf(format, args...))
		}
	}

	for i, row := range sheet.Rows {
		rowNum := i + 2 // 1-based, after the header row

		productID := cellAt(row, colProductID)
		if productID == "" {
			result.RowsSkipped++
			addDiagnostic("row %d: missing product_id, row skipped", rowNum)
			continue
		}

		for j, code := range pincodes {
			raw := cellAt(row, firstPincodeCol+j)
			if raw == "" {
				// No price to import for this pair. Existing data is
				// untouched; a blank never deletes.
				result.CellsBlank++
				continue
			}

			paise, err := money.ParseRupees(raw)
			if err != nil {
				result.CellsInvalid++
				addDiagnostic("row %d, pincode %s: unparseable price %q", rowNum, code, raw)
				continue
			}
			if !money.IsPositive(paise) {
				result.CellsInvalid++
				addDiagnostic("row %d, pincode %s: non-positive price %q", rowNum, code, raw)
				continue
			}

			result.Candidates = append(result.Candidates, Candidate{
				Row:        rowNum,
				ProductID:  productID,
				Pincode:    code,
				PricePaise: paise,
			})
		}
	}

	return result, nil
}

func validateHeader(header []string) error {
	if len(header) < firstPincodeCol+1 {
		return pkgerrors.New(pkgerrors.CodeSchema,
			fmt.Sprintf("header needs %s plus at least one pincode column, got %d columns",
				strings.Join(fixedHeader, ", "), len(header)))
	}

	for i, want := range fixedHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return pkgerrors.New(pkgerrors.CodeSchema,
				fmt.Sprintf("column %d must be %q, got %q", i+1, want, header[i]))
		}
	}

	var bad []string
	for _, code := range header[firstPincodeCol:] {
		if !pincode.Valid(code) {
			bad = append(bad, code)
		}
	}
	if len(bad) > 0 {
		return pkgerrors.New(pkgerrors.CodeSchema, "pincode columns must be 6-digit codes").
			WithDetails(map[string]any{"invalid_headers": bad})
	}
	return nil
}

func cellAt(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

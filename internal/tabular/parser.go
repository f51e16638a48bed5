package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bazaarworks/pincode-pricing-backend/pkg/enums"
	pkgerrors "github.com/bazaarworks/pincode-pricing-backend/pkg/errors"
)

// Sheet is the parsed form of one uploaded price sheet: a header row and
// the data rows beneath it, all cells trimmed.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// xlsxMagic is the ZIP local-file signature every OOXML container starts with.
var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// DetectFormat picks the container format from the filename extension,
// falling back to content sniffing for extensionless uploads.
func DetectFormat(filename string, data []byte) enums.SheetFormat {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") {
		return enums.SheetFormatXLSX
	}
	if strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".tsv") || strings.HasSuffix(lower, ".txt") {
		return enums.SheetFormatCSV
	}
	if bytes.HasPrefix(data, xlsxMagic) {
		return enums.SheetFormatXLSX
	}
	return enums.SheetFormatCSV
}

// Parse turns raw uploaded bytes into a Sheet. It fails with a
// MALFORMED_INPUT error when the content is unreadable or holds fewer than
// a header plus one data row.
func Parse(data []byte, format enums.SheetFormat) (*Sheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case enums.SheetFormatXLSX:
		rows, err = parseXLSX(data)
	case enums.SheetFormatCSV:
		rows, err = parseDelimited(data)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported sheet format %q", format))
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeMalformedInput, "sheet needs a header row and at least one data row")
	}
	return &Sheet{Header: rows[0], Rows: rows[1:]}, nil
}

// parseDelimited handles CSV/TSV content. The delimiter is decided once
// from the header row (tab when present, comma otherwise) and applied to
// every row of the file.
func parseDelimited(data []byte) ([][]string, error) {
	lines := splitLines(string(data))

	var rows [][]string
	delim := rune(0)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if delim == 0 {
			delim = ','
			if strings.ContainsRune(line, '\t') {
				delim = '\t'
			}
		}
		rows = append(rows, tokenize(line, delim))
	}
	return rows, nil
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeMalformedInput, err, "opening spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeMalformedInput, "spreadsheet has no sheets")
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeMalformedInput, err, "reading first sheet")
	}

	var rows [][]string
	for _, row := range raw {
		trimmed := make([]string, len(row))
		blank := true
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
			if trimmed[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, trimmed)
	}
	return rows, nil
}

// tokenize splits one line on delim with a single-pass in-quote/not-in-quote
// state machine. A doubled quote inside a quoted field is one literal quote;
// the delimiter is inert while a quote is open.
func tokenize(line string, delim rune) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuote && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
			} else {
				inQuote = !inQuote
			}
		case ch == delim && !inQuote:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

func splitLines(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	return strings.Split(normalized, "\n")
}

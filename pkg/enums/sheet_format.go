package enums

import "fmt"

// SheetFormat identifies the container of an uploaded price sheet.
type SheetFormat string

const (
	SheetFormatCSV  SheetFormat = "csv"
	SheetFormatXLSX SheetFormat = "xlsx"
)

var validSheetFormats = []SheetFormat{
	SheetFormatCSV,
	SheetFormatXLSX,
}

// String implements fmt.Stringer.
func (f SheetFormat) String() string {
	return string(f)
}

// IsValid reports whether the format is recognized.
func (f SheetFormat) IsValid() bool {
	for _, candidate := range validSheetFormats {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseSheetFormat converts a raw string into a SheetFormat.
func ParseSheetFormat(value string) (SheetFormat, error) {
	for _, candidate := range validSheetFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sheet format %q", value)
}

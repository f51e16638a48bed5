package pricing

// Candidate is one validated (product, pincode, price) triple produced by
// sheet normalization, ready for upsert. Row carries the 1-based sheet row
// it came from so storage failures can name their origin.
type Candidate struct {
	Row        int
	ProductID  string
	Pincode    string
	PricePaise int64
}

// NormalizeResult aggregates per-row and per-cell dispositions from one
// sheet normalization pass.
type NormalizeResult struct {
	Candidates   []Candidate
	RowsTotal    int
	RowsSkipped  int
	CellsBlank   int
	CellsInvalid int
	Diagnostics  []string
}

// RowError records one candidate the storage layer rejected. The rest of
// the batch is unaffected.
type RowError struct {
	Row       int    `json:"row"`
	ProductID string `json:"product_id"`
	Pincode   string `json:"pincode"`
	Reason    string `json:"reason"`
}

// UpsertResult is the structured outcome of one bulk upsert: partial
// failure is inspectable data, never a side effect.
type UpsertResult struct {
	Created int
	Updated int
	Errors  []RowError
}

// ImportReport is the caller-facing summary of one import operation. It is
// never persisted.
type ImportReport struct {
	Imported           int      `json:"imported"`
	Failed             int      `json:"failed"`
	TotalRowsProcessed int      `json:"total_rows_processed"`
	RowsSkipped        int      `json:"rows_skipped"`
	Errors             []string `json:"errors"`
}

// Quote is the checkout-facing resolution bundle for one (product, pincode)
// pair. Display fields are derived from the stored paise value on the way
// out.
type Quote struct {
	ProductID      string `json:"product_id"`
	Pincode        string `json:"pincode"`
	PricePaise     int64  `json:"price_paise"`
	Price          string `json:"price"`
	PriceFormatted string `json:"price_formatted"`
	Currency       string `json:"currency"`
	DeliveryDays   int    `json:"delivery_days"`
	CODAvailable   bool   `json:"cod_available"`
}

package parser

import "github.com/grocerytrack/receipt-parser/constants"

// Storage field limits shared with the persistence layer. The truncation
// here must match the column sizes exactly or items silently diverge
// between the parse result and the stored row.
const (
	MaxStoreNameLen = 200
	MaxItemNameLen  = 200
	MaxCategoryLen  = 100
	// A store name longer than the column almost certainly means the whole
	// receipt was dumped into the field; re-derive instead of truncating.
	StoreNameDisplayLen = 100
)

// LineItem is one purchased product on a receipt.
type LineItem struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Category   string  `json:"category"`
}

// ReceiptRecord is the validated output of a parse. A record is built fresh
// per parse call and never mutated after validation returns it.
type ReceiptRecord struct {
	StoreName     string     `json:"store_name"`
	Date          *string    `json:"date"`
	Time          *string    `json:"time"`
	Items         []LineItem `json:"items"`
	Subtotal      *float64   `json:"subtotal"`
	Tax           *float64   `json:"tax"`
	Total         float64    `json:"total"`
	Change        *float64   `json:"change"`
	PaymentMethod *string    `json:"payment_method"`
}

// Result is the tagged outcome callers receive. Success is false only when
// the input itself was unreadable; every degraded path still carries a
// usable Data so callers can persist something rather than lose the upload.
type Result struct {
	Success    bool             `json:"success"`
	Method     constants.Method `json:"method"`
	Data       ReceiptRecord    `json:"data"`
	Confidence float64          `json:"confidence"`
	Error      string           `json:"error,omitempty"`
}

// Heuristic trust levels per extraction path. Not calibrated; they exist so
// downstream consumers can rank records by provenance.
const (
	ConfidenceLLM       = 0.85
	ConfidenceHeuristic = 0.60
	ConfidenceDegraded  = 0.50
)

// FallbackRecord is the empty-but-valid record used when nothing could be
// extracted.
func FallbackRecord() ReceiptRecord {
	return ReceiptRecord{
		StoreName: "Unknown Store",
		Items:     []LineItem{},
		Total:     0.0,
	}
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/parser"
)

// SaveRequest wraps a parsed record together with its provenance.
type SaveRequest struct {
	Record     parser.ReceiptRecord
	Method     constants.Method
	Confidence float64
	SourcePath string
}

// StoredReceipt is a persisted receipt with its items, as read back from
// the store.
type StoredReceipt struct {
	ID         uuid.UUID
	StoreName  string
	Date       *string
	Time       *string
	Subtotal   *float64
	Tax        *float64
	Total      float64
	Method     constants.Method
	Confidence float64
	SourcePath string
	CreatedAt  time.Time
	Items      []parser.LineItem
}

// ListFilter narrows List results. Zero values mean unbounded.
type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Store persists parsed receipts. Implementations exist for SQLite
// (single-binary local use) and Postgres (shared deployments).
type Store interface {
	Save(ctx context.Context, req SaveRequest) (uuid.UUID, error)
	List(ctx context.Context, filter ListFilter) ([]StoredReceipt, error)
	Close() error
}

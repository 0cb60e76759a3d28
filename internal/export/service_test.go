package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/grocerytrack/receipt-parser/constants"
	"github.com/grocerytrack/receipt-parser/internal/parser"
	"github.com/grocerytrack/receipt-parser/internal/repository"
)

type stubStore struct {
	receipts   []repository.StoredReceipt
	lastFilter repository.ListFilter
}

func (s *stubStore) Save(ctx context.Context, req repository.SaveRequest) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (s *stubStore) List(ctx context.Context, filter repository.ListFilter) ([]repository.StoredReceipt, error) {
	s.lastFilter = filter
	return s.receipts, nil
}

func (s *stubStore) Close() error { return nil }

func TestExportXLSXOneRowPerItem(t *testing.T) {
	date := "2024-01-15"
	store := &stubStore{receipts: []repository.StoredReceipt{
		{
			ID:         uuid.New(),
			StoreName:  "KROGER",
			Date:       &date,
			Total:      5.22,
			Method:     constants.MethodOfflineLLM,
			Confidence: 0.85,
			SourcePath: "/receipts/kroger.pdf",
			Items: []parser.LineItem{
				{Name: "MILK", Quantity: 2, UnitPrice: 1.99, TotalPrice: 3.98, Category: "Dairy"},
				{Name: "BANANAS", Quantity: 1, UnitPrice: 1.24, TotalPrice: 1.24, Category: "Produce"},
			},
		},
	}}

	svc := NewService(store, nil)
	data, err := svc.ExportXLSX(context.Background(), nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + one row per item

	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "KROGER", rows[1][1])
	assert.Equal(t, "MILK", rows[1][2])
	assert.Equal(t, "BANANAS", rows[2][2])
}

func TestExportXLSXReceiptWithNoItemsStillExported(t *testing.T) {
	store := &stubStore{receipts: []repository.StoredReceipt{
		{ID: uuid.New(), StoreName: "CORNER DELI", Total: 12.00, Method: constants.MethodOCROnly, Confidence: 0.6},
	}}

	svc := NewService(store, nil)
	data, err := svc.ExportXLSX(context.Background(), nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Receipts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CORNER DELI", rows[1][1])
}

func TestExportXLSXWidensOpenEndedWindow(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, nil)

	from := time.Date(2024, 1, 1, 13, 45, 0, 0, time.UTC)
	_, err := svc.ExportXLSX(context.Background(), &from, nil)
	require.NoError(t, err)

	require.NotNil(t, store.lastFilter.From)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *store.lastFilter.From)
	require.NotNil(t, store.lastFilter.To) // defaulted to today
}

package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAppliesDefaults(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Validate([]byte(`{}`))

	assert.Equal(t, "Unknown Store", rec.StoreName)
	assert.Equal(t, 0.0, rec.Total)
	assert.Empty(t, rec.Items)
	assert.Nil(t, rec.Date)
	assert.Nil(t, rec.Tax)
}

func TestValidateItemDefaults(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Validate([]byte(`{"items": [{}]}`))

	require.Len(t, rec.Items, 1)
	it := rec.Items[0]
	assert.Equal(t, "Unknown Item", it.Name)
	assert.Equal(t, 1.0, it.Quantity)
	assert.Equal(t, 0.0, it.UnitPrice)
	assert.Equal(t, 0.0, it.TotalPrice)
	assert.Equal(t, "Other", it.Category)
}

func TestValidateCoercesNumericStrings(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Validate([]byte(`{"total": "$1,234.56", "tax": "0.42", "items": [{"name": "MILK", "quantity": "2", "unit_price": "1.99"}]}`))

	assert.Equal(t, 1234.56, rec.Total)
	require.NotNil(t, rec.Tax)
	assert.Equal(t, 0.42, *rec.Tax)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, 2.0, rec.Items[0].Quantity)
	assert.Equal(t, 1.99, rec.Items[0].UnitPrice)
}

func TestValidateGarbageYieldsFallback(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Validate([]byte(`not json at all`))

	assert.Equal(t, "Unknown Store", rec.StoreName)
	assert.Empty(t, rec.Items)
	assert.Equal(t, 0.0, rec.Total)
}

func TestCleanDropsSummaryRowItems(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{
		StoreName: "Kroger",
		Items: []LineItem{
			{Name: "MILK", Quantity: 1, UnitPrice: 1.99, TotalPrice: 1.99, Category: "Dairy"},
			{Name: "SUBTOTAL", Quantity: 1, TotalPrice: 5.00},
			{Name: "Total", Quantity: 1, TotalPrice: 5.42},
			{Name: "TAX", Quantity: 1, TotalPrice: 0.42},
			{Name: "ITEMS SOLD", Quantity: 3},
		},
	})

	require.Len(t, rec.Items, 1)
	assert.Equal(t, "MILK", rec.Items[0].Name)
}

func TestCleanClampsImplausibleQuantities(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{
		StoreName: "Target",
		Items: []LineItem{
			{Name: "A", Quantity: 0.05, UnitPrice: 1.00, TotalPrice: 1.00},
			{Name: "B", Quantity: 250, UnitPrice: 1.00, TotalPrice: 1.00},
			{Name: "C", Quantity: 2, UnitPrice: 1.00, TotalPrice: 2.00},
		},
	})

	require.Len(t, rec.Items, 3)
	assert.Equal(t, 1.0, rec.Items[0].Quantity)
	assert.Equal(t, 1.0, rec.Items[1].Quantity)
	assert.Equal(t, 2.0, rec.Items[2].Quantity)
}

func TestCleanDerivesTotalFromUnitPrice(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{
		StoreName: "Aldi",
		Items: []LineItem{
			{Name: "YOGURT", Quantity: 3, UnitPrice: 1.10},
		},
	})

	require.Len(t, rec.Items, 1)
	assert.Equal(t, 3.30, rec.Items[0].TotalPrice)
}

func TestCleanZeroesNegativePrices(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{
		StoreName: "Publix",
		Total:     -5,
		Items: []LineItem{
			{Name: "X Y", Quantity: 1, UnitPrice: -1.99, TotalPrice: -1.99},
		},
	})

	assert.Equal(t, 0.0, rec.Total)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, 0.0, rec.Items[0].UnitPrice)
	assert.Equal(t, 0.0, rec.Items[0].TotalPrice)
}

func TestCleanClampsNegativeOptionalMoney(t *testing.T) {
	v := NewValidator(nil)

	subtotal, tax, change := -3.50, -5.00, -1.25
	rec := v.Clean(ReceiptRecord{
		StoreName: "Kroger",
		Subtotal:  &subtotal,
		Tax:       &tax,
		Change:    &change,
	})

	require.NotNil(t, rec.Subtotal)
	assert.Equal(t, 0.0, *rec.Subtotal)
	require.NotNil(t, rec.Tax)
	assert.Equal(t, 0.0, *rec.Tax)
	require.NotNil(t, rec.Change)
	assert.Equal(t, 0.0, *rec.Change)
}

func TestValidateUncoercibleMoneyBecomesZero(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Validate([]byte(`{"subtotal": "abc", "tax": -5.00, "change": true, "date": null, "total": 5.0}`))

	require.NotNil(t, rec.Subtotal)
	assert.Equal(t, 0.0, *rec.Subtotal)
	require.NotNil(t, rec.Tax)
	assert.Equal(t, 0.0, *rec.Tax)
	require.NotNil(t, rec.Change)
	assert.Equal(t, 0.0, *rec.Change)

	// Absent and explicit-null fields stay null.
	rec = v.Validate([]byte(`{"tax": null}`))
	assert.Nil(t, rec.Tax)
	assert.Nil(t, rec.Subtotal)
}

func TestCleanCanonicalizesCategories(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{
		StoreName: "HEB",
		Items: []LineItem{
			{Name: "MILK", Quantity: 1, TotalPrice: 1.99, Category: "dairy"},
			{Name: "WIDGET", Quantity: 1, TotalPrice: 2.99, Category: "Nonsense Bucket"},
			{Name: "BANANAS", Quantity: 1, TotalPrice: 1.24, Category: ""},
		},
	})

	require.Len(t, rec.Items, 3)
	assert.Equal(t, "Dairy", rec.Items[0].Category)
	assert.Equal(t, "Other", rec.Items[1].Category)
	assert.Equal(t, "Produce", rec.Items[2].Category)
}

func TestCleanStoreNameSplitsPOSSuffixes(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{
		StoreName: "Walmart Supercenter, 123 Main St (555) 123-4567",
	})
	assert.Equal(t, "Walmart Supercenter", rec.StoreName)
}

func TestCleanStoreNameKeepsLeadingBusinessName(t *testing.T) {
	v := NewValidator(nil)

	long := "Walmart Supercenter - Store #1234, Austin TX " + strings.Repeat("x", 205)
	rec := v.Clean(ReceiptRecord{StoreName: long})

	assert.Equal(t, "Walmart Supercenter", rec.StoreName)
	assert.LessOrEqual(t, len(rec.StoreName), StoreNameDisplayLen)
}

func TestCleanStoreNameRederivedFromHeaderBlob(t *testing.T) {
	v := NewValidator(nil)

	blob := "RECEIPT\nKROGER #421\n" + strings.Repeat("lorem ipsum filler text ", 12)
	rec := v.Clean(ReceiptRecord{StoreName: blob})

	assert.Equal(t, "KROGER #421", rec.StoreName)
}

func TestCleanStoreNameTruncatedToDisplayWidth(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{StoreName: strings.Repeat("A", 150)})

	assert.Len(t, rec.StoreName, StoreNameDisplayLen)
	assert.True(t, strings.HasSuffix(rec.StoreName, "..."))
}

func TestCleanTruncatesOnRuneBoundary(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{
		StoreName: strings.Repeat("é", 80),
		Items: []LineItem{
			{Name: strings.Repeat("é", 150), Quantity: 1, TotalPrice: 1.00},
		},
	})

	assert.True(t, utf8.ValidString(rec.StoreName))
	assert.LessOrEqual(t, len(rec.StoreName), StoreNameDisplayLen)
	assert.True(t, strings.HasSuffix(rec.StoreName, "..."))

	require.Len(t, rec.Items, 1)
	assert.True(t, utf8.ValidString(rec.Items[0].Name))
	assert.LessOrEqual(t, len(rec.Items[0].Name), MaxItemNameLen)
}

func TestCleanEmptyStoreNameDefaults(t *testing.T) {
	v := NewValidator(nil)

	rec := v.Clean(ReceiptRecord{StoreName: "   "})
	assert.Equal(t, "Unknown Store", rec.StoreName)
}

package parser

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLineQuantityAtUnitPrice(t *testing.T) {
	lib := NewPatternLibrary()

	cand, ok := lib.MatchLine("MILK 2 @ $1.99 $3.98")
	require.True(t, ok)
	assert.Equal(t, "MILK", cand.Name)
	assert.True(t, cand.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, cand.UnitPrice.Equal(decimal.RequireFromString("1.99")))
	assert.True(t, cand.TotalPrice.Equal(decimal.RequireFromString("3.98")))
}

func TestMatchLineLeadingQuantityGroupedPrice(t *testing.T) {
	lib := NewPatternLibrary()

	cand, ok := lib.MatchLine("2 INDOMIE GORENG 36,000")
	require.True(t, ok)
	assert.Equal(t, "INDOMIE GORENG", cand.Name)
	assert.True(t, cand.Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, cand.TotalPrice.Equal(decimal.NewFromInt(36000)))
	assert.True(t, cand.UnitPrice.Equal(decimal.NewFromInt(18000)))
}

func TestMatchLineBarcode(t *testing.T) {
	lib := NewPatternLibrary()

	cand, ok := lib.MatchLine("Su HRO FGHTR 06305094073 6.94 T")
	require.True(t, ok)
	assert.Equal(t, "Su HRO FGHTR", cand.Name)
	assert.True(t, cand.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, cand.UnitPrice.Equal(decimal.RequireFromString("6.94")))
	assert.True(t, cand.TotalPrice.Equal(decimal.RequireFromString("6.94")))
}

func TestMatchLineTrailingPrice(t *testing.T) {
	lib := NewPatternLibrary()

	cand, ok := lib.MatchLine("BANANAS 1.24")
	require.True(t, ok)
	assert.Equal(t, "BANANAS", cand.Name)
	assert.True(t, cand.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, cand.TotalPrice.Equal(decimal.RequireFromString("1.24")))
}

func TestMatchLineRejectsSummaryAndNoise(t *testing.T) {
	lib := NewPatternLibrary()

	for _, line := range []string{
		"TOTAL 17.25",
		"SUBTOTAL 15.00",
		"TAX 0.42",
		"CHANGE 2.75",
		"THANK YOU FOR SHOPPING",
		"CASH 20.00",
		"X 1",             // too short
		"0123456789 1234", // digit dominated
		"",
	} {
		_, ok := lib.MatchLine(line)
		assert.False(t, ok, "line %q should not match", line)
	}
}

func TestShouldSkip(t *testing.T) {
	assert.True(t, ShouldSkip("TOTAL 17.25"))
	assert.True(t, ShouldSkip("VISA CREDIT ****1234"))
	assert.True(t, ShouldSkip("ab"))
	assert.False(t, ShouldSkip("MILK 2 @ $1.99 $3.98"))
	assert.False(t, ShouldSkip("DATES 3.99")) // fruit, not the keyword
}

func TestMatchLineCleansItemName(t *testing.T) {
	lib := NewPatternLibrary()

	cand, ok := lib.MatchLine("* GRN  BEANS.. 2.49")
	require.True(t, ok)
	assert.Equal(t, "GRN BEANS", cand.Name)
}

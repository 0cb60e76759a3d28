package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUnifiesLineEndings(t *testing.T) {
	assert.Equal(t, "A\nB\nC", Normalize("A\r\nB\rC"))
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "MILK 2.49", Normalize("MILK    \t  2.49"))
}

func TestNormalizeStripsNoiseCharacters(t *testing.T) {
	assert.Equal(t, "EGGS 3.49", Normalize("EGGS~~ © 3.49•"))
}

func TestNormalizeKeepsReceiptPunctuation(t *testing.T) {
	in := "MILK 2 @ $1.99 $3.98"
	assert.Equal(t, in, Normalize(in))
}

func TestNormalizeDropsEmptyAndRuleLines(t *testing.T) {
	in := "STORE\n\n----------\n   \nTOTAL 5.00"
	assert.Equal(t, "STORE\nTOTAL 5.00", Normalize(in))
}

func TestNormalizeAllGarbage(t *testing.T) {
	assert.Equal(t, "", Normalize("•©~• »"))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
}

func TestHeuristicConfidenceBoosts(t *testing.T) {
	low := heuristicConfidence("xx")
	high := heuristicConfidence("WALMART 01/15/2024 TOTAL $8.34 " +
		"MILK 3.98 BREAD 2.50 BANANAS 1.24 EGGS 3.49 plenty of decoded receipt content here to pass the length bar")
	assert.Less(t, low, high)
	assert.LessOrEqual(t, high, float32(1.0))
}

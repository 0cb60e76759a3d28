package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerytrack/receipt-parser/internal/common"
)

func TestExtractTextPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.txt")
	require.NoError(t, os.WriteFile(path, []byte("CORNER STORE\nEGGS 3.49\n"), 0o644))

	e := NewExtractor(Config{}, nil)
	text, err := e.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "EGGS 3.49")
}

func TestExtractTextMissingFile(t *testing.T) {
	e := NewExtractor(Config{}, nil)

	_, err := e.ExtractText(context.Background(), "does-not-exist.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInputUnavailable)
}

func TestExtractTextUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	e := NewExtractor(Config{}, nil)
	_, err := e.ExtractText(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInputUnavailable)
}

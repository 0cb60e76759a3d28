package parser

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"

	"github.com/grocerytrack/receipt-parser/constants"
)

// Validator turns arbitrary model JSON into a ReceiptRecord that downstream
// storage and export can always handle: every missing field gets a default,
// every implausible value gets corrected, and the store name is bounded.
// It never rejects input; cleanup is total.
type Validator struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		schema: compileReceiptSchema(),
		logger: logger,
	}
}

// nonProductNames are line-item names models copy from summary lines.
var nonProductNames = map[string]bool{
	"SUBTOTAL":   true,
	"TOTAL":      true,
	"TAX":        true,
	"CHANGE":     true,
	"ITEMS SOLD": true,
	"CASH":       true,
	"DEBIT":      true,
	"CREDIT":     true,
}

// storeBoilerplate marks header lines that cannot be a store name when the
// name must be re-derived from a multi-line blob.
var storeBoilerplate = []string{
	"RECEIPT", "THANK", "WELCOME", "SAVE MONEY", "LIVE BETTER", "TEL", "PHONE",
}

var reWhitespace = regexp.MustCompile(`\s+`)

// Validate decodes raw model JSON, applies defaults for anything missing
// or mistyped, and runs full cleanup. The raw bytes are expected to be
// valid JSON; a decode failure yields the fallback record.
func (v *Validator) Validate(raw []byte) ReceiptRecord {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		v.logger.Warn("validate.decode_failed", "error", err)
		return FallbackRecord()
	}
	if err := v.schema.Validate(doc); err != nil {
		v.logger.Debug("validate.schema_mismatch", "error", err)
	}

	rec := ReceiptRecord{
		StoreName:     stringField(doc, "store_name", "Unknown Store"),
		Date:          optionalString(doc, "date"),
		Time:          optionalString(doc, "time"),
		Subtotal:      optionalMoney(doc, "subtotal"),
		Tax:           optionalMoney(doc, "tax"),
		Total:         moneyField(doc, "total"),
		Change:        optionalMoney(doc, "change"),
		PaymentMethod: optionalString(doc, "payment_method"),
		Items:         []LineItem{},
	}

	if rawItems, ok := doc["items"].([]any); ok {
		for _, ri := range rawItems {
			im, ok := ri.(map[string]any)
			if !ok {
				continue
			}
			rec.Items = append(rec.Items, LineItem{
				Name:       stringField(im, "name", "Unknown Item"),
				Quantity:   numberField(im, "quantity", 1.0),
				UnitPrice:  numberField(im, "unit_price", 0.0),
				TotalPrice: numberField(im, "total_price", 0.0),
				Category:   stringField(im, "category", ""),
			})
		}
	}

	return v.Clean(rec)
}

// Clean enforces every record invariant: plausible quantities, derived
// totals, canonical categories, bounded names, and no summary rows posing
// as items. It is safe to call on records from any extraction path.
func (v *Validator) Clean(rec ReceiptRecord) ReceiptRecord {
	rec.StoreName = cleanStoreName(rec.StoreName)
	if rec.StoreName == "" {
		rec.StoreName = "Unknown Store"
	}

	cleaned := make([]LineItem, 0, len(rec.Items))
	for _, it := range rec.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			it.Name = "Unknown Item"
		}
		if nonProductNames[strings.ToUpper(it.Name)] {
			continue
		}
		it.Name = truncate(it.Name, MaxItemNameLen)

		if it.Quantity <= 0.1 || it.Quantity >= 100 {
			it.Quantity = 1.0
		}
		if it.UnitPrice < 0 {
			it.UnitPrice = 0
		}
		if it.TotalPrice < 0 {
			it.TotalPrice = 0
		}
		if it.TotalPrice == 0 && it.UnitPrice > 0 {
			total := decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromFloat(it.Quantity))
			it.TotalPrice, _ = total.Round(2).Float64()
		}

		if cat, ok := constants.Canonicalize(it.Category); ok {
			it.Category = string(cat)
		} else if it.Category == "" {
			it.Category = string(constants.Categorize(it.Name))
		} else {
			it.Category = string(constants.Other)
		}
		it.Category = truncate(it.Category, MaxCategoryLen)

		cleaned = append(cleaned, it)
	}
	rec.Items = cleaned

	if rec.Total < 0 {
		rec.Total = 0
	}
	rec.Subtotal = clampNonNegative(rec.Subtotal)
	rec.Tax = clampNonNegative(rec.Tax)
	rec.Change = clampNonNegative(rec.Change)
	return rec
}

func clampNonNegative(v *float64) *float64 {
	if v != nil && *v < 0 {
		zero := 0.0
		return &zero
	}
	return v
}

// cleanStoreName bounds a model-produced store name. Names over the storage
// limit are usually a whole receipt header pasted in; the real name is
// re-derived from the first lines, then common POS suffixes are split off
// and the result is fit to the display width.
func cleanStoreName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > MaxStoreNameLen && strings.Contains(name, "\n") {
		name = deriveStoreFromBlob(name)
	}
	name = strings.ReplaceAll(name, "\n", " ")

	for _, sep := range []string{",", "(", " - ", "POS", "TOTAL"} {
		if idx := strings.Index(name, sep); idx > 0 {
			name = name[:idx]
		}
	}
	name = reWhitespace.ReplaceAllString(strings.TrimSpace(name), " ")

	return truncate(name, StoreNameDisplayLen)
}

func deriveStoreFromBlob(blob string) string {
	lines := splitLines(blob)
	limit := len(lines)
	if limit > 3 {
		limit = 3
	}
scan:
	for _, line := range lines[:limit] {
		upper := strings.ToUpper(line)
		for _, bp := range storeBoilerplate {
			if strings.Contains(upper, bp) {
				continue scan
			}
		}
		if len(line) >= 3 && reHasLetter.MatchString(line) {
			return line
		}
	}
	if len(lines) > 0 {
		return lines[0]
	}
	return blob
}

// truncate fits s into limit bytes, backing up to a rune boundary so the
// cut never emits invalid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func stringField(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return def
}

func optionalString(m map[string]any, key string) *string {
	if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
		s = strings.TrimSpace(s)
		return &s
	}
	return nil
}

// numberField coerces number or numeric-string values; anything else gets
// the default.
func numberField(m map[string]any, key string, def float64) float64 {
	switch val := m[key].(type) {
	case float64:
		return val
	case string:
		s := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(val))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

func moneyField(m map[string]any, key string) float64 {
	return numberField(m, key, 0.0)
}

// optionalMoney keeps absent and null values null; anything present is
// coerced, defaulting to 0.0 when the value cannot be read as money.
func optionalMoney(m map[string]any, key string) *float64 {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}
	f := 0.0
	switch v := val.(type) {
	case float64:
		f = v
	case string:
		s := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(v))
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			f = parsed
		}
	}
	return &f
}

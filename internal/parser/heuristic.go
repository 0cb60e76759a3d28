package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/grocerytrack/receipt-parser/constants"
)

// HeuristicExtractor builds a ReceiptRecord from raw receipt text without
// any model in the loop. It is the fallback path when the LLM is disabled,
// unreachable, or returns garbage, and the primary path for ocr_only and
// heuristic requests.
type HeuristicExtractor struct {
	patterns *PatternLibrary
	logger   *slog.Logger
}

func NewHeuristicExtractor(logger *slog.Logger) *HeuristicExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeuristicExtractor{
		patterns: NewPatternLibrary(),
		logger:   logger,
	}
}

// knownStores are retailer names matched case-insensitively against the top
// of the receipt before any weaker store-name heuristic runs.
var knownStores = []string{
	"WALMART", "TARGET", "KROGER", "SAFEWAY", "COSTCO", "SAM'S CLUB",
	"WHOLE FOODS", "TRADER JOE'S", "ALDI", "PUBLIX", "WEGMANS", "MEIJER",
	"H-E-B", "ALBERTSONS", "FOOD LION", "GIANT", "STOP & SHOP", "SHOPRITE",
	"WINCO", "SPROUTS", "FRED MEYER", "PIGGLY WIGGLY", "CVS", "WALGREENS",
	"RITE AID", "DOLLAR GENERAL", "DOLLAR TREE", "FAMILY DOLLAR", "7-ELEVEN",
	"INDOMARET", "ALFAMART",
}

var (
	reStoreIndicator = regexp.MustCompile(`(?i)\b(SUPERMARKET|MARKET|GROCERY|STORE|MART|FOODS|PHARMACY)\b`)
	reTotalLabel     = regexp.MustCompile(`(?i)\b(?:grand\s*total|total|amount\s*due|amount|balance(?:\s*due)?)\b[\s:]*\$?\s*(\d{1,5}\.\d{2})`)
	reTaxLabel       = regexp.MustCompile(`(?i)\b(?:sales\s*tax|tax|hst|gst|vat)\b[\s:]*\$?\s*(\d{1,4}\.\d{2})`)
	reAmountToken    = regexp.MustCompile(`\$?(\d{1,5}\.\d{2})`)
	reDateSlash      = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})\b`)
	reDateISO        = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reTime           = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::\d{2})?\s*([AaPp][Mm])?\b`)
	reHasLetter      = regexp.MustCompile(`[A-Za-z]`)
)

const (
	totalMin = 0.01
	totalMax = 10000.0
	taxMax   = 1000.0
)

// Extract runs every field heuristic over the text. Individual line
// failures are skipped, never fatal; the result is always a usable record.
func (h *HeuristicExtractor) Extract(text string) ReceiptRecord {
	lines := splitLines(text)

	rec := FallbackRecord()
	rec.StoreName = h.FindStoreName(lines)
	rec.Date = h.FindDate(lines)
	rec.Time = h.FindTime(lines)
	rec.Items = h.ExtractItems(lines)

	if total, ok := h.FindTotal(lines); ok {
		rec.Total = total
	}
	if tax, ok := h.FindTax(lines); ok {
		rec.Tax = &tax
	}

	if len(rec.Items) > 0 {
		sum := decimal.Zero
		for _, it := range rec.Items {
			sum = sum.Add(decimal.NewFromFloat(it.TotalPrice))
		}
		subtotal, _ := sum.Round(2).Float64()
		rec.Subtotal = &subtotal
		if rec.Total == 0 {
			rec.Total = subtotal
		}
	}

	h.logger.Debug("heuristic.extract.done",
		"store", rec.StoreName, "items", len(rec.Items), "total", rec.Total)
	return rec
}

// FindStoreName scans the top of the receipt: exact retailer names first,
// then store-ish indicator words, then the first plausible header line.
func (h *HeuristicExtractor) FindStoreName(lines []string) string {
	top := lines
	if len(top) > 15 {
		top = top[:15]
	}
	for _, line := range top {
		upper := strings.ToUpper(line)
		for _, store := range knownStores {
			if strings.Contains(upper, store) {
				return strings.TrimSpace(line)
			}
		}
	}
	for _, line := range top {
		if reStoreIndicator.MatchString(line) {
			return strings.TrimSpace(line)
		}
	}
	limit := len(lines)
	if limit > 8 {
		limit = 8
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if len(line) < 3 || len(line) > 80 {
			continue
		}
		if !reHasLetter.MatchString(line) {
			continue
		}
		if ShouldSkip(line) {
			continue
		}
		return line
	}
	return "Unknown Store"
}

// FindTotal prefers the last labelled total near the bottom of the receipt,
// falling back to the largest plausible amount in the final lines.
func (h *HeuristicExtractor) FindTotal(lines []string) (float64, bool) {
	tail := lastN(lines, 15)
	for i := len(tail) - 1; i >= 0; i-- {
		if m := reTotalLabel.FindStringSubmatch(tail[i]); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= totalMin && v <= totalMax {
				return v, true
			}
		}
	}
	best := 0.0
	for _, line := range lastN(lines, 8) {
		for _, m := range reAmountToken.FindAllStringSubmatch(line, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil || v < totalMin || v > totalMax {
				continue
			}
			if v > best {
				best = v
			}
		}
	}
	return best, best > 0
}

func (h *HeuristicExtractor) FindTax(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if m := reTaxLabel.FindStringSubmatch(lines[i]); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= totalMin && v <= taxMax {
				return v, true
			}
		}
	}
	return 0, false
}

// FindDate normalizes the first recognizable date to YYYY-MM-DD. Two digit
// years below 50 are read as 20xx, the rest as 19xx.
func (h *HeuristicExtractor) FindDate(lines []string) *string {
	for _, line := range lines {
		if m := reDateISO.FindStringSubmatch(line); m != nil {
			d := fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
			return &d
		}
		if m := reDateSlash.FindStringSubmatch(line); m != nil {
			month, _ := strconv.Atoi(m[1])
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if year < 100 {
				if year < 50 {
					year += 2000
				} else {
					year += 1900
				}
			}
			if month < 1 || month > 12 || day < 1 || day > 31 {
				continue
			}
			d := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			return &d
		}
	}
	return nil
}

func (h *HeuristicExtractor) FindTime(lines []string) *string {
	for _, line := range lines {
		m := reTime.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			continue
		}
		if ampm := strings.ToUpper(m[3]); ampm != "" {
			if ampm == "PM" && hour < 12 {
				hour += 12
			}
			if ampm == "AM" && hour == 12 {
				hour = 0
			}
		}
		t := fmt.Sprintf("%02d:%02d", hour, minute)
		return &t
	}
	return nil
}

// ExtractItems runs the pattern library over every line and categorizes
// each hit by product-name keywords.
func (h *HeuristicExtractor) ExtractItems(lines []string) []LineItem {
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		cand, ok := h.patterns.MatchLine(line)
		if !ok {
			continue
		}
		qty, _ := cand.Quantity.Float64()
		unit, _ := cand.UnitPrice.Float64()
		total, _ := cand.TotalPrice.Float64()
		items = append(items, LineItem{
			Name:       cand.Name,
			Quantity:   qty,
			UnitPrice:  unit,
			TotalPrice: total,
			Category:   string(constants.Categorize(cand.Name)),
		})
	}
	return items
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func lastN(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

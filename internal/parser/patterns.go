package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate is an unvalidated item extracted from a single receipt line,
// before categorization and cleanup.
type Candidate struct {
	Name       string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// linePattern is one self-describing line shape: the regexp plus the mapping
// from its capture groups to a Candidate. Shapes never infer meaning from
// group arity; each owns its own build function.
type linePattern struct {
	tag   string
	re    *regexp.Regexp
	build func(m []string) (Candidate, bool)
}

// PatternLibrary holds an ordered list of line shapes, tried in priority
// order on a single trimmed line; the first match wins. Narrow, high
// precision shapes come first so a loose trailing-price match never steals
// a line a stricter shape describes better.
type PatternLibrary struct {
	patterns []linePattern
}

const minProductLineLen = 5

var (
	reSkipKeywords = regexp.MustCompile(`(?i)\b(total|tax|subtotal|balance|change|thank|receipt|date|time|cashier|register|transaction|card|cash|credit|debit|payment|amount|member|points|rewards|coupon|discount|refund|void|tare|phone|website|email|address|store\s*#)\b`)
	reAllDigitsish = regexp.MustCompile(`^[\d\s\.\$]+$`)
)

func NewPatternLibrary() *PatternLibrary {
	return &PatternLibrary{
		patterns: []linePattern{
			{
				// NAME QTY @ UNIT TOTAL, optional trailing tax-code noise:
				// "MILK 2 @ $1.99 $3.98"
				tag: "qty-at-unit-total",
				re:  regexp.MustCompile(`^(.+?)\s+(\d+(?:\.\d+)?)\s*@\s*\$?\s*(\d+\.\d{2})\s+\$?\s*(\d+\.\d{2})\s*[A-Za-z]?$`),
				build: func(m []string) (Candidate, bool) {
					qty, ok1 := parseDecimal(m[2])
					unit, ok2 := parseMoney(m[3])
					total, ok3 := parseMoney(m[4])
					if !ok1 || !ok2 || !ok3 || qty.IsZero() {
						return Candidate{}, false
					}
					return Candidate{Name: m[1], Quantity: qty, UnitPrice: unit, TotalPrice: total}, true
				},
			},
			{
				// QTY NAME PRICE where the price may carry thousands grouping:
				// "2 INDOMIE GORENG 36,000"
				tag: "qty-name-grouped-total",
				re:  regexp.MustCompile(`^(\d+)\s+(.+?)\s+\$?(\d{1,3}(?:[ ,]\d{3})+(?:\.\d{1,2})?|\d+\.\d{2})$`),
				build: func(m []string) (Candidate, bool) {
					qty, ok1 := parseDecimal(m[1])
					total, ok2 := parseMoney(m[3])
					if !ok1 || !ok2 || qty.IsZero() {
						return Candidate{}, false
					}
					return Candidate{
						Name:       m[2],
						Quantity:   qty,
						UnitPrice:  total.DivRound(qty, 2),
						TotalPrice: total,
					}, true
				},
			},
			{
				// NAME BARCODE PRICE TAXCODE, the common POS layout:
				// "CANDY PNUT BTR 06305094073 6.94 T"
				tag: "name-barcode-price",
				re:  regexp.MustCompile(`^(.+?)\s+\d{11,13}\s+\$?(\d+\.\d{2})\s+[A-Za-z]$`),
				build: func(m []string) (Candidate, bool) {
					total, ok := parseMoney(m[2])
					if !ok {
						return Candidate{}, false
					}
					return Candidate{Name: m[1], Quantity: decimal.NewFromInt(1), UnitPrice: total, TotalPrice: total}, true
				},
			},
			{
				// NAME PRICE fallback, quantity implied as 1:
				// "BANANAS 1.24"
				tag: "name-trailing-price",
				re:  regexp.MustCompile(`^(.+?)\s+\$?(\d+\.\d{2})\s*[A-Za-z]?$`),
				build: func(m []string) (Candidate, bool) {
					total, ok := parseMoney(m[2])
					if !ok {
						return Candidate{}, false
					}
					return Candidate{Name: m[1], Quantity: decimal.NewFromInt(1), UnitPrice: total, TotalPrice: total}, true
				},
			},
		},
	}
}

// MatchLine tries each shape in priority order on a single trimmed line.
// The second return is false for skip-listed lines and lines no shape
// describes.
func (p *PatternLibrary) MatchLine(line string) (Candidate, bool) {
	line = strings.TrimSpace(line)
	if ShouldSkip(line) {
		return Candidate{}, false
	}
	for _, pat := range p.patterns {
		m := pat.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		cand, ok := pat.build(m)
		if !ok {
			continue
		}
		cand.Name = cleanItemName(cand.Name)
		if len(cand.Name) < 2 || reAllDigitsish.MatchString(cand.Name) {
			continue
		}
		return cand, true
	}
	return Candidate{}, false
}

// ShouldSkip rejects lines that cannot be product lines: non-product
// keywords (totals, payment details, boilerplate), lines too short to carry
// a name and a price, and digit-dominated lines such as bare barcodes.
func ShouldSkip(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < minProductLineLen {
		return true
	}
	if reSkipKeywords.MatchString(line) {
		return true
	}
	digits := 0
	for _, r := range line {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits > len(line)*7/10
}

func cleanItemName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimLeft(name, "-*#@ ")
	name = strings.TrimRight(name, ".,;:-_* ")
	return strings.Join(strings.Fields(name), " ")
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseMoney(s string) (decimal.Decimal, bool) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	return parseDecimal(s)
}

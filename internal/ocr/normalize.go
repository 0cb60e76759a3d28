package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reMultiSpace = regexp.MustCompile(`[ \t]{2,}`)
	// Characters that survive cleaning: word characters plus the punctuation
	// that actually appears on receipts. Everything else is OCR noise.
	reDisallowed = regexp.MustCompile(`[^\w \.\,\$\-\+\=\:\;\(\)\[\]\{\}@#%/&'\*]`)
)

var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

// Normalize cleans raw OCR text before pattern matching or prompting:
// line terminators are unified, runs of whitespace collapse to one space,
// characters outside the receipt allow-list are stripped, and lines that
// end up empty are dropped. Never fails; all-garbage input normalizes to "".
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reBoxNoise.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = reDisallowed.ReplaceAllString(line, " ")
		line = reMultiSpace.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

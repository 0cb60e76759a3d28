package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/grocerytrack/receipt-parser/internal/common"
)

// ExtractJSON pulls the first JSON object out of a model reply and repairs
// the malformations small local models habitually produce: markdown fences,
// trailing commas, unquoted keys, bare string values, doubled quotes, and
// replies truncated mid-object. Valid input passes through untouched, so
// the function is idempotent.
//
// When no object can be recovered it returns a minimal fallback document
// together with common.ErrMalformedReply so callers can prefer their own
// fallback path.
func ExtractJSON(reply string) (string, error) {
	s := stripFences(reply)

	start := strings.Index(s, "{")
	if start < 0 {
		return minimalFallbackJSON, common.WrapError(common.ErrMalformedReply, "no JSON object in reply")
	}
	candidate := s[start:]

	// The clean span from first { to last } first, then the full tail for
	// replies truncated before their closing brace.
	attempts := []string{}
	if end := strings.LastIndex(candidate, "}"); end >= 0 {
		attempts = append(attempts, candidate[:end+1])
	}
	attempts = append(attempts, candidate)

	for _, a := range attempts {
		if json.Valid([]byte(a)) {
			return a, nil
		}
	}
	for _, a := range attempts {
		if repaired := repairJSON(a); json.Valid([]byte(repaired)) {
			return repaired, nil
		}
	}
	return minimalFallbackJSON, common.WrapError(common.ErrMalformedReply, "JSON unrecoverable after repair")
}

const minimalFallbackJSON = `{"store_name":"Unknown Store","items":[],"total":0.0}`

var (
	reFence         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	reTrailingComma = regexp.MustCompile(`,\s*([}\]])`)
	reBareKey       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	reDoubledQuote  = regexp.MustCompile(`:\s*"([^"\n]*)"([^",}\]\n]+)"`)
	reBareValue     = regexp.MustCompile(`(:\s*)([A-Za-z][A-Za-z0-9 _\-']*?)(\s*[,}\]])`)
)

func stripFences(s string) string {
	if m := reFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	s = strings.ReplaceAll(s, "```json", "")
	return strings.ReplaceAll(s, "```", "")
}

func repairJSON(s string) string {
	s = reTrailingComma.ReplaceAllString(s, "$1")
	s = reBareKey.ReplaceAllString(s, `$1"$2":`)
	s = reDoubledQuote.ReplaceAllString(s, `: "$1$2"`)

	// Bare word values after a colon get quoted, but JSON literals stay.
	s = reBareValue.ReplaceAllStringFunc(s, func(m string) string {
		sub := reBareValue.FindStringSubmatch(m)
		word := strings.TrimSpace(sub[2])
		switch word {
		case "true", "false", "null":
			return m
		}
		return sub[1] + `"` + word + `"` + sub[3]
	})

	s = strings.TrimSpace(s)
	s = completeTruncated(s)
	return balanceBrackets(s)
}

// completeTruncated patches replies cut off by the token limit.
func completeTruncated(s string) string {
	trimmed := strings.TrimRight(s, " \t\n")
	if strings.HasSuffix(trimmed, ",") {
		return strings.TrimSuffix(trimmed, ",")
	}
	return trimmed
}

// balanceBrackets appends the closers an unterminated object still needs,
// tracking string context so braces inside values do not count.
func balanceBrackets(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, c)
			}
		case '}':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

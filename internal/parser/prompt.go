package parser

import (
	"fmt"
	"strings"
)

// maxPromptTextLen bounds the OCR text placed in the user prompt so small
// context windows are not blown by pathological receipts.
const maxPromptTextLen = 3000

// BuildSystemPrompt instructs the model to return a single JSON object in
// the record shape, with categories restricted to the given list.
func BuildSystemPrompt(categories []string) string {
	var b strings.Builder
	b.WriteString("You are a receipt parsing engine. ")
	b.WriteString("Given raw OCR text of a store receipt, respond with exactly one JSON object and nothing else. ")
	b.WriteString("No markdown, no code fences, no commentary.\n\n")
	b.WriteString("The object must use this shape:\n")
	b.WriteString(`{"store_name": string, "date": "YYYY-MM-DD" or null, "time": "HH:MM" or null, ` +
		`"items": [{"name": string, "quantity": number, "unit_price": number, "total_price": number, "category": string}], ` +
		`"subtotal": number or null, "tax": number or null, "total": number, ` +
		`"change": number or null, "payment_method": string or null}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Only product lines become items. Never include subtotal, total, tax or change rows as items.\n")
	b.WriteString("- Prices are plain numbers without currency symbols.\n")
	b.WriteString("- If a value is not on the receipt, use null for optional fields.\n")
	b.WriteString("- category must be one of: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString(".\n")
	return b.String()
}

// BuildUserPrompt wraps the OCR text, truncated to the prompt budget.
func BuildUserPrompt(text string) string {
	if len(text) > maxPromptTextLen {
		text = text[:maxPromptTextLen]
	}
	return fmt.Sprintf("Parse this receipt:\n\n%s", text)
}

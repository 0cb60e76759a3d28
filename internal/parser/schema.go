package parser

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// receiptSchemaJSON is a deliberately permissive shape gate for model
// output. Models emit numbers as strings and omit fields freely, so every
// monetary field accepts number, string, or null; normalization happens in
// the validator, not here. The schema only rejects documents that are not
// object-shaped at all.
const receiptSchemaJSON = `{
  "type": "object",
  "properties": {
    "store_name": {"type": ["string", "null"]},
    "date": {"type": ["string", "null"]},
    "time": {"type": ["string", "null"]},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": ["string", "null"]},
          "quantity": {"type": ["number", "string", "null"]},
          "unit_price": {"type": ["number", "string", "null"]},
          "total_price": {"type": ["number", "string", "null"]},
          "category": {"type": ["string", "null"]}
        }
      }
    },
    "subtotal": {"type": ["number", "string", "null"]},
    "tax": {"type": ["number", "string", "null"]},
    "total": {"type": ["number", "string", "null"]},
    "change": {"type": ["number", "string", "null"]},
    "payment_method": {"type": ["string", "null"]}
  }
}`

func compileReceiptSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("receipt.json", strings.NewReader(receiptSchemaJSON)); err != nil {
		panic(err)
	}
	return c.MustCompile("receipt.json")
}

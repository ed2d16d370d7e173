package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Response shapes. Values inside a mapping are left open: the service may
// send numbers where strings are expected.
var (
	standardSchema = jsonschema.MustCompileString("standard.json", `{
		"type": "object"
	}`)
	lineItemsSchema = jsonschema.MustCompileString("line_items.json", `{
		"type": ["array", "object"],
		"items": {"type": "object"}
	}`)
)

// decodeValidated decodes raw with json.Number precision and validates it.
func decodeValidated(schema *jsonschema.Schema, raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}
	return v, nil
}

package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildPurchaseOrderJSONSchema is the fixed shape we ask the model for. It is
// deliberately lenient on value types (strings where numbers belong are coerced
// later) but strict on structure, so a response shaped like something else
// entirely is rejected before it reaches the database.
func BuildPurchaseOrderJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	nullableNumber := map[string]any{"type": []string{"number", "string", "null"}}
	// PO numbers come back as bare numbers often enough to allow both.
	nullableScalar := map[string]any{"type": []string{"string", "number", "null"}}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"poNumber": nullableScalar,
			"supplier": nullableString,
			"buyer":    nullableString,
			"date":     nullableString,
			"amount":   nullableNumber,
			"currency": nullableString,
			"lineItems": map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"description": nullableString,
						"quantity":    nullableNumber,
						"unitPrice":   nullableNumber,
						"totalPrice":  nullableNumber,
					},
				},
			},
		},
	}
}

// ValidateAgainstSchema checks a recovered document against a schema map.
func ValidateAgainstSchema(schema map[string]any, doc []byte) error {
	sb, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiled, err := jsonschema.CompileString("schema.json", string(sb))
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return compiled.Validate(v)
}

package llm

import (
	"github.com/joseph-ayodele/subsidy-tracker/constants"
	"github.com/joseph-ayodele/subsidy-tracker/internal/schema"
)

// BuildSubsidyJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the model as a structured output constraint and
// also use it locally to validate responses. The schema is deliberately loose
// on element types: the coercion engine is the real safety net.
func BuildSubsidyJSONSchema() map[string]any {
	props := make(map[string]any, len(constants.CanonicalFields)+1)
	for _, field := range constants.CanonicalFields {
		props[field] = propFor(field)
	}
	props["attachment_sources_used"] = map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{constants.FieldURL, constants.FieldTitle},
	}
}

func propFor(field string) map[string]any {
	if field == constants.FieldExtractionStatus {
		return map[string]any{
			"type": "string",
			"enum": []string{
				string(constants.ExtractionExtracted),
				string(constants.ExtractionNotFound),
				string(constants.ExtractionPending),
			},
		}
	}
	if field == constants.FieldDeadline {
		return map[string]any{
			"type":    []string{"string", "null"},
			"pattern": `^\d{4}-\d{2}-\d{2}$`,
		}
	}

	if schema.IsArrayField(field) {
		// array preferred, but models frequently emit scalars here
		return map[string]any{
			"type": []string{"array", "string", "number", "null"},
		}
	}
	if schema.FieldKind(field) == schema.KindNumeric {
		return map[string]any{
			"type": []string{"number", "string", "null"},
		}
	}
	return map[string]any{
		"type": []string{"string", "null"},
	}
}

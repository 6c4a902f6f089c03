package fields

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// fieldsSchema pins the wire shape of a marshaled StructuredFields payload.
// Persisted rows are validated against it so schema drift fails loudly at
// the write instead of corrupting stored records.
const fieldsSchema = `{
  "type": "object",
  "properties": {
    "provider_clinic":    {"type": "string"},
    "clinic_address":     {"type": "string"},
    "clinic_phone":       {"type": "string"},
    "patient_name":       {"type": "string"},
    "patient_dob":        {"type": "string"},
    "visit_date":         {"type": ["string", "null"]},
    "provider_name":      {"type": "string"},
    "provider_specialty": {"type": "string"},
    "signature":          {"type": "string"},
    "sections": {
      "type": "object",
      "properties": {
        "presenting_complaint": {"type": ["string", "null"]},
        "history":              {"type": ["string", "null"]},
        "examination":          {"type": ["string", "null"]},
        "assessment":           {"type": ["string", "null"]},
        "plan":                 {"type": ["string", "null"]},
        "tests":                {"type": ["string", "null"]},
        "follow_up":            {"type": ["string", "null"]},
        "medications":          {"type": ["string", "null"]}
      },
      "required": ["presenting_complaint", "history", "examination", "assessment", "plan", "tests", "follow_up", "medications"],
      "additionalProperties": false
    },
    "diagnosis":   {"type": "array", "items": {"type": "string"}},
    "medications": {"type": "array", "items": {"type": "string"}},
    "lab_results": {"type": "object", "additionalProperties": {"type": "string"}}
  },
  "required": ["visit_date", "sections"],
  "additionalProperties": false
}`

var compiledFieldsSchema = jsonschema.MustCompileString("structured_fields.json", fieldsSchema)

// ValidateJSON validates a marshaled StructuredFields payload against the
// schema.
func ValidateJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal fields: %w", err)
	}
	if err := compiledFieldsSchema.Validate(v); err != nil {
		return fmt.Errorf("fields do not match schema: %w", err)
	}
	return nil
}

package llm

import (
	"encoding/json"
	"fmt"
)

// ToolSchema describes a named, fielded record type the model may emit.
type ToolSchema struct {
	// Name is the schema name, e.g. "Plan" or "Response".
	Name string

	// Description tells the model what the schema is for.
	Description string

	// Parameters is the JSON schema of the record's fields.
	Parameters map[string]any
}

// SchemaBinding binds output schemas to a single model call.
type SchemaBinding struct {
	// Schemas are the record types offered to the model.
	Schemas []ToolSchema

	// Forced requires the model to emit exactly Schemas[0].
	// When false the schemas are offered as allowed options.
	Forced bool
}

// StructuredResult is the first well-formed schema instance extracted
// from a model response.
type StructuredResult struct {
	// Schema is the name of the schema that matched.
	Schema string

	// Arguments is the raw JSON payload of the instance.
	Arguments json.RawMessage
}

// Decode unmarshals the instance into v.
func (r *StructuredResult) Decode(v any) error {
	if err := json.Unmarshal(r.Arguments, v); err != nil {
		return &ParseError{Message: fmt.Sprintf("decode %s arguments: %v", r.Schema, err), Raw: string(r.Arguments)}
	}
	return nil
}

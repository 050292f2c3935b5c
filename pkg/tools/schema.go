package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaFor reflects a typed argument struct into the JSON-schema object
// carried by a Descriptor. Field tags drive naming and requiredness the
// usual jsonschema way.
func SchemaFor(v any) map[string]any {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""

	raw, err := json.Marshal(schema)
	if err != nil {
		return emptyObjectSchema()
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return emptyObjectSchema()
	}
	delete(out, "$schema")
	delete(out, "$id")
	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	return out
}

func emptyObjectSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

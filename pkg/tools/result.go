package tools

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ToolResult is the tagged outcome of a tool execution: success with a
// data payload, or an error with a reason. Either way it reaches the model
// as one canonical JSON object, so the loop stays alive on failures.
type ToolResult struct {
	OK     bool
	Data   map[string]any
	Reason string
}

// Success builds a successful result carrying data.
func Success(data map[string]any) ToolResult {
	return ToolResult{OK: true, Data: data}
}

// Fail builds an error result.
func Fail(reason string) ToolResult {
	return ToolResult{Reason: reason}
}

// Failf builds an error result from a format string.
func Failf(format string, args ...any) ToolResult {
	return ToolResult{Reason: fmt.Sprintf(format, args...)}
}

// ToJSON renders the canonical serialization consumed by the model:
//
//	{"status":"success", ...data}
//	{"status":"error","error":"reason"}
//
// Keys are emitted in stable order. A data key named "status" would be
// shadowed and is dropped.
func (r ToolResult) ToJSON() string {
	if !r.OK {
		b, err := json.Marshal(map[string]string{"status": "error", "error": r.Reason})
		if err != nil {
			return `{"status":"error","error":"unserializable result"}`
		}
		return string(b)
	}

	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		if k == "status" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := []byte(`{"status":"success"`)
	for _, k := range keys {
		value, err := json.Marshal(r.Data[k])
		if err != nil {
			continue
		}
		name, _ := json.Marshal(k)
		buf = append(buf, ',')
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	buf = append(buf, '}')
	return string(buf)
}

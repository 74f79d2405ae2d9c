package stage

import (
	"encoding/json"

	"prodlens/internal/schema"
)

// Result is the structured record produced by one stage. Immutable once
// produced; the controller stores it into the shared context under the
// stage's output key and it is never overwritten.
type Result struct {
	// Raw is the JSON object extracted from the model response.
	Raw json.RawMessage

	// Fields is the decoded top level of Raw.
	Fields map[string]interface{}

	// Confidence is the normalized stage confidence. Stages that report no
	// confidence default to medium.
	Confidence schema.Confidence

	// Warnings records leniency applied during parsing (e.g. an unknown
	// confidence value that was normalized). Never fatal.
	Warnings []string
}

// CompactJSON returns Raw as a compact string for injection into a
// downstream stage's prompt bindings.
func (r *Result) CompactJSON() string {
	var buf json.RawMessage
	if err := json.Unmarshal(r.Raw, &buf); err != nil {
		return string(r.Raw)
	}
	compact, err := json.Marshal(buf)
	if err != nil {
		return string(r.Raw)
	}
	return string(compact)
}

// StringField returns the named top-level field as a string, or "" when
// absent or not a string.
func (r *Result) StringField(name string) string {
	if s, ok := r.Fields[name].(string); ok {
		return s
	}
	return ""
}

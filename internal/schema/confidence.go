package schema

import "strings"

// Confidence is the categorical confidence attached to stage results.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is one of the three known levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// NormalizeConfidence maps a raw model-supplied confidence string onto the
// known vocabulary. Unknown values fall back to medium; the second return
// value reports whether the input was already valid. The model cannot be
// forced to be exact here, so this is a lenient parse, not a failure.
func NormalizeConfidence(raw string) (Confidence, bool) {
	c := Confidence(strings.ToLower(strings.TrimSpace(raw)))
	if c.Valid() {
		return c, true
	}
	return ConfidenceMedium, false
}

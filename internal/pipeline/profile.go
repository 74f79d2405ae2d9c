package pipeline

import (
	"fmt"

	"prodlens/internal/schema"
)

// AttributeValue is one merged attribute in the final profile: the value (nil
// when the pipeline could not fill it), where it came from, and how sure the
// model was.
type AttributeValue struct {
	Value      *string           `json:"value"`
	Source     string            `json:"source,omitempty"`
	Confidence schema.Confidence `json:"confidence,omitempty"`
}

// Filled reports whether the attribute carries a usable value.
func (a AttributeValue) Filled() bool {
	return a.Value != nil && *a.Value != ""
}

// ProductProfile is the terminal artifact of a successful run. Created once
// from the terminal stage's result; read-only thereafter.
type ProductProfile struct {
	ProductName string                    `json:"product_name"`
	ImageCount  int                       `json:"image_count"`
	Attributes  map[string]AttributeValue `json:"attributes"`
	Description string                    `json:"product_description,omitempty"`
	FilledCount int                       `json:"filled_count"`
	SourcesUsed []string                  `json:"sources_used,omitempty"`
	Summary     map[string]interface{}    `json:"enrichment_summary,omitempty"`
}

// deriveProfile builds the ProductProfile from the terminal stage's result.
//
// The terminal stage may report attributes either as plain strings or as
// {value, source, confidence} objects. For plain strings, provenance is
// reconstructed: an attribute the extraction stage already had (non-null)
// is attributed to the image; one that appeared only at enrichment is
// attributed to the first non-image entry of sources_used.
func (p *Controller) deriveProfile(req Request, shared *Context) (*ProductProfile, error) {
	terminal, ok := shared.Get(p.terminalKey)
	if !ok {
		return nil, fmt.Errorf("terminal key %q missing from context", p.terminalKey)
	}

	profile := &ProductProfile{
		ProductName: req.ProductName,
		ImageCount:  len(req.Images),
		Attributes:  make(map[string]AttributeValue, p.catalog.Len()),
		Description: terminal.StringField("product_description"),
	}

	if raw, ok := terminal.Fields["sources_used"].([]interface{}); ok {
		for _, s := range raw {
			if str, ok := s.(string); ok {
				profile.SourcesUsed = append(profile.SourcesUsed, str)
			}
		}
	}
	if summary, ok := terminal.Fields["enrichment_summary"].(map[string]interface{}); ok {
		profile.Summary = summary
	}

	attrs, _ := terminal.Fields["attributes"].(map[string]interface{})
	extracted := p.extractedAttributes(shared)
	fallback := fallbackSource(profile.SourcesUsed)

	for _, spec := range p.catalog.Specs() {
		raw, present := attrs[spec.Name]
		if !present || raw == nil {
			profile.Attributes[spec.Name] = AttributeValue{}
			continue
		}
		switch v := raw.(type) {
		case map[string]interface{}:
			profile.Attributes[spec.Name] = structuredAttribute(v, terminal.Confidence)
		case string:
			source := fallback
			if extractedValue, ok := extracted[spec.Name]; ok && extractedValue != nil {
				source = "image"
			}
			value := v
			profile.Attributes[spec.Name] = AttributeValue{
				Value:      &value,
				Source:     source,
				Confidence: terminal.Confidence,
			}
		default:
			// Numbers and booleans happen; stringify rather than drop.
			value := fmt.Sprintf("%v", v)
			profile.Attributes[spec.Name] = AttributeValue{
				Value:      &value,
				Source:     fallback,
				Confidence: terminal.Confidence,
			}
		}
	}

	for _, a := range profile.Attributes {
		if a.Filled() {
			profile.FilledCount++
		}
	}
	return profile, nil
}

// extractedAttributes returns the raw attribute map of the extraction stage,
// or nil when it produced none.
func (p *Controller) extractedAttributes(shared *Context) map[string]interface{} {
	result, ok := shared.Get(p.extractionKey)
	if !ok {
		return nil
	}
	attrs, _ := result.Fields["attributes"].(map[string]interface{})
	return attrs
}

// structuredAttribute decodes a {value, source, confidence} object.
func structuredAttribute(m map[string]interface{}, defaultConf schema.Confidence) AttributeValue {
	out := AttributeValue{Confidence: defaultConf}
	if v, ok := m["value"].(string); ok && v != "" {
		out.Value = &v
	}
	if s, ok := m["source"].(string); ok {
		out.Source = s
	}
	if c, ok := m["confidence"].(string); ok {
		conf, _ := schema.NormalizeConfidence(c)
		out.Confidence = conf
	}
	return out
}

// fallbackSource picks the provenance for attributes filled at enrichment
// time: the first sources_used entry that is not the image, or "enrichment"
// when the stage reported no sources.
func fallbackSource(sources []string) string {
	for _, s := range sources {
		if s != "image" {
			return s
		}
	}
	return "enrichment"
}

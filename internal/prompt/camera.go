// Package prompt holds the built-in stage definitions for the camera
// extraction pipeline: image extraction, search-query planning, and
// attribute enrichment. Templates use declared {placeholder}s; the literal
// braces in the JSON output contracts pass through untouched.
package prompt

import (
	"fmt"
	"strings"

	"prodlens/internal/pipeline"
	"prodlens/internal/stage"
)

// Stage keys. Later stages reference earlier results under these keys, and
// the same keys name the placeholders in their templates.
const (
	KeyExtracted = "extracted_attributes"
	KeySearch    = "search_results"
	KeyProfile   = "final_product_profile"
)

const extractionText = `You are an expert camera product analyst with deep knowledge of camera specifications.

Product Name: {product_name}
Images provided: {image_count}

Extract or infer every attribute in this list from the product images:
{attribute_list}

Rules:
- Extract visible attributes directly: color, body material, ports, mounts, displays, any printed specs.
- Infer non-visible attributes from brand and camera class (e.g. a mirrorless body implies an electronic viewfinder; "Canon EOS" implies a Canon EF/RF mount).
- If you are at least 50% sure, infer the value and mark the overall confidence "medium".
- Use null only when the image gives you nothing to go on.

Return ONLY valid JSON (no markdown, no code blocks):
{
    "attributes": {"<attribute name>": "<value or null>", ...},
    "product_description": "2-3 compelling sentences for an e-commerce listing",
    "confidence": "high/medium/low",
    "extraction_notes": "what was extracted vs inferred"
}`

const searchText = `You are a specification research planner for camera products.

Product Name: {product_name}
Attributes extracted so far:
{extracted_attributes}

Plan 3-5 targeted web searches that would confirm or fill the attributes that are null, uncertain, or inferred. Prefer manufacturer sites, datasheets, and detailed reviews. If the exact model is obscure, plan a fallback search for its series or family.

Do not perform any search. Return ONLY valid JSON (no markdown, no code blocks):
{
    "search_queries": [
        {"query": "<search query text>", "target_attributes": ["<attribute>", ...]}
    ],
    "missing_attributes": ["<attributes no query can realistically fill>"]
}`

const enrichmentText = `You are an attribute enrichment and finalization expert for camera products.

Product Name: {product_name}
Initial extraction:
{extracted_attributes}

Planned specification searches:
{search_results}

Produce the final product profile. Fill every attribute using this priority: official manufacturer knowledge, then image-extracted values, then inference from product type and brand, then a sensible category default. Confidence: "high" for official specs, "medium" for inference, "low" for defaults.

Attributes to fill:
{attribute_list}

Return ONLY valid JSON (no markdown, no code blocks):
{
    "attributes": {"<attribute name>": {"value": "<value>", "source": "<image/official_specs/inference/defaults>", "confidence": "high/medium/low"}, ...},
    "product_description": "2-3 compelling sentences for an e-commerce listing",
    "sources_used": ["image", "official_specs", "inference", "defaults"],
    "enrichment_summary": {
        "total_attributes": <n>,
        "filled_attributes": <n>,
        "high_confidence_count": <n>
    }
}`

// Catalog is the subset of schema.Catalog the templates need.
type Catalog interface {
	Names() []string
}

// CameraStages returns the three-stage camera pipeline definition for the
// given attribute catalog. Execution order is fixed: extraction, search
// planning, enrichment.
func CameraStages(catalog Catalog) []pipeline.StageDef {
	attributeList := strings.Join(catalog.Names(), ", ")
	bind := func(text string) string {
		// attribute_list is catalog-derived and constant for the process,
		// so it is baked in here rather than threaded through bindings.
		return strings.ReplaceAll(text, "{attribute_list}", attributeList)
	}

	return []pipeline.StageDef{
		{
			ID: "image_extraction",
			Template: stage.Template{
				Name:     "image_extraction",
				Text:     bind(extractionText),
				Required: []string{"product_name"},
				Optional: []string{"image_count"},
			},
			OutputKey:   KeyExtracted,
			Output:      stage.OutputSchema{Required: []string{"attributes"}},
			WantsImages: true,
		},
		{
			ID: "search_planning",
			Template: stage.Template{
				Name:     "search_planning",
				Text:     bind(searchText),
				Required: []string{"product_name", KeyExtracted},
			},
			DependsOn: []string{KeyExtracted},
			OutputKey: KeySearch,
			Output:    stage.OutputSchema{Required: []string{"search_queries"}},
		},
		{
			ID: "attribute_enrichment",
			Template: stage.Template{
				Name:     "attribute_enrichment",
				Text:     bind(enrichmentText),
				Required: []string{"product_name", KeyExtracted, KeySearch},
			},
			DependsOn: []string{KeyExtracted, KeySearch},
			OutputKey: KeyProfile,
			Output:    stage.OutputSchema{Required: []string{"attributes"}},
		},
	}
}

// Describe returns a short human-readable description of the pipeline,
// used by the CLI.
func Describe(stages []pipeline.StageDef) string {
	parts := make([]string, len(stages))
	for i, def := range stages {
		parts[i] = fmt.Sprintf("%d. %s -> %s", i+1, def.ID, def.OutputKey)
	}
	return strings.Join(parts, "\n")
}

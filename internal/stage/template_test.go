package stage

import (
	"errors"
	"strings"
	"testing"
)

func TestRenderSubstitutesDeclaredPlaceholders(t *testing.T) {
	tmpl := Template{
		Name:     "greeting",
		Text:     "Product: {product_name} ({image_count} images)",
		Required: []string{"product_name"},
		Optional: []string{"image_count"},
	}

	out, err := tmpl.Render(map[string]string{
		"product_name": "Canon EOS R5",
		"image_count":  "3",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out != "Product: Canon EOS R5 (3 images)" {
		t.Errorf("unexpected render output: %q", out)
	}
}

func TestRenderMissingRequiredPlaceholder(t *testing.T) {
	tmpl := Template{
		Name:     "extraction",
		Text:     "Product: {product_name}",
		Required: []string{"product_name"},
	}

	_, err := tmpl.Render(map[string]string{"other": "x"})
	if err == nil {
		t.Fatal("expected error for missing required binding")
	}
	var bindErr *BindingError
	if !errors.As(err, &bindErr) {
		t.Fatalf("expected *BindingError, got %T", err)
	}
	if bindErr.Placeholder != "product_name" {
		t.Errorf("error names placeholder %q, want product_name", bindErr.Placeholder)
	}
	if bindErr.Stage != "extraction" {
		t.Errorf("error names stage %q, want extraction", bindErr.Stage)
	}
}

func TestRenderMissingOptionalIsNotAnError(t *testing.T) {
	tmpl := Template{
		Name:     "t",
		Text:     "A {req} B {opt} C",
		Required: []string{"req"},
		Optional: []string{"opt"},
	}
	out, err := tmpl.Render(map[string]string{"req": "x"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// The unbound optional placeholder passes through verbatim.
	if out != "A x B {opt} C" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRenderLeavesJSONBracesAlone(t *testing.T) {
	tmpl := Template{
		Name:     "t",
		Text:     `Return JSON: {"attributes": {"Color": "{color}"}}`,
		Required: []string{"color"},
	}
	out, err := tmpl.Render(map[string]string{"color": "black"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, `{"attributes": {"Color": "black"}}`) {
		t.Errorf("JSON braces damaged: %q", out)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"markdown fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", `Here you go: {"a": {"b": 2}} done`, `{"a": {"b": 2}}`},
		{"brace inside string", `{"a": "close } brace"}`, `{"a": "close } brace"}`},
		{"escaped quote", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`},
		{"no object", "sorry, I cannot help", ""},
		{"unbalanced", `{"a": 1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

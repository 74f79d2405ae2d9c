package stage

import "strings"

// Template is an instruction template with named {placeholder}s.
// Placeholders are declared, not scanned: the instruction text for these
// pipelines is full of literal JSON braces, so only declared names are
// substituted and everything else passes through verbatim.
type Template struct {
	Name string
	Text string

	// Required lists placeholders that must have a binding at render time.
	Required []string

	// Optional lists placeholders substituted when bound, ignored when not.
	Optional []string
}

// Render substitutes all declared placeholders and returns the final prompt.
// A required placeholder without a binding yields a *BindingError.
func (t Template) Render(bindings map[string]string) (string, error) {
	for _, name := range t.Required {
		if _, ok := bindings[name]; !ok {
			return "", &BindingError{Stage: t.Name, Placeholder: name}
		}
	}
	out := t.Text
	for _, name := range t.Required {
		out = strings.ReplaceAll(out, "{"+name+"}", bindings[name])
	}
	for _, name := range t.Optional {
		if v, ok := bindings[name]; ok {
			out = strings.ReplaceAll(out, "{"+name+"}", v)
		}
	}
	return out, nil
}

// Placeholders returns every declared placeholder name.
func (t Template) Placeholders() []string {
	all := make([]string, 0, len(t.Required)+len(t.Optional))
	all = append(all, t.Required...)
	all = append(all, t.Optional...)
	return all
}

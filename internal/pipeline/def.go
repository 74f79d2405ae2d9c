package pipeline

import (
	"fmt"

	"prodlens/internal/stage"
)

// StageDef describes one stage of a pipeline: its instruction template, the
// context keys it depends on, and the key its result is stored under.
// Definitions are supplied at construction time and immutable afterwards.
type StageDef struct {
	// ID identifies the stage in failure outcomes and logs.
	ID string

	// Template is the instruction template rendered per invocation.
	Template stage.Template

	// DependsOn lists context keys this stage reads. Each must be the
	// OutputKey of an earlier stage in the list.
	DependsOn []string

	// OutputKey is the context key this stage's result is stored under.
	OutputKey string

	// Output declares the required top-level response fields.
	Output stage.OutputSchema

	// WantsImages marks stages that receive the product images alongside
	// the prompt (the vision stage).
	WantsImages bool
}

// DependencyError reports a configuration inconsistency: a stage depends on
// a key no earlier stage produces. Surfaced at construction, before any
// stage executes.
type DependencyError struct {
	Stage string
	Key   string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("stage %s depends on key %q not produced by any earlier stage", e.Stage, e.Key)
}

// validateStages checks ordering, key uniqueness and dependency
// satisfiability for a stage list.
func validateStages(stages []StageDef) error {
	if len(stages) == 0 {
		return fmt.Errorf("pipeline needs at least one stage")
	}
	produced := make(map[string]bool, len(stages))
	for _, def := range stages {
		if def.ID == "" {
			return fmt.Errorf("stage with empty ID")
		}
		if def.OutputKey == "" {
			return fmt.Errorf("stage %s has empty output key", def.ID)
		}
		for _, dep := range def.DependsOn {
			if !produced[dep] {
				return &DependencyError{Stage: def.ID, Key: dep}
			}
		}
		if produced[def.OutputKey] {
			return fmt.Errorf("duplicate output key %q (stage %s)", def.OutputKey, def.ID)
		}
		produced[def.OutputKey] = true
	}
	return nil
}

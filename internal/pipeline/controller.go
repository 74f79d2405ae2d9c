// Package pipeline runs a fixed, ordered list of stages against a shared
// per-run context. The pipeline never branches or loops: stage order is
// declared at construction and no stage output can alter which stages run.
package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"prodlens/internal/logging"
	"prodlens/internal/schema"
	"prodlens/internal/stage"
)

// RunState is the terminal status vocabulary for a product's run, shared by
// the batch runner and the result store. Within Run itself the lifecycle is
// NotStarted -> stage 1..N running -> Succeeded, with any stage failure
// short-circuiting to Failed; no state is revisited.
type RunState string

const (
	StateNotStarted RunState = "not_started"
	StateRunning    RunState = "running"
	StateSucceeded  RunState = "succeeded"
	StateFailed     RunState = "failed"
)

// Request is the initial input for one pipeline run.
type Request struct {
	ProductName string
	Images      []stage.ImagePayload
}

// StageError is the failure outcome of a run: the failing stage's identifier
// plus the underlying executor error. Downstream stages never run with
// partial data; the first failure aborts the product.
type StageError struct {
	StageID string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline aborted at stage %s: %v", e.StageID, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Controller executes stages strictly in declaration order, binding each
// stage's inputs from the request and the shared context.
type Controller struct {
	stages  []StageDef
	exec    *stage.Executor
	catalog *schema.Catalog

	// extractionKey and terminalKey anchor profile derivation: the first
	// stage's output tells us which attribute values came from the image,
	// the last stage's output is the profile source of truth.
	extractionKey string
	terminalKey   string
}

// NewController validates the stage list and returns a controller.
// An out-of-order dependency yields a *DependencyError before any stage
// can execute.
func NewController(exec *stage.Executor, catalog *schema.Catalog, stages []StageDef) (*Controller, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("attribute catalog is required")
	}
	if err := validateStages(stages); err != nil {
		return nil, err
	}
	defs := make([]StageDef, len(stages))
	copy(defs, stages)
	return &Controller{
		stages:        defs,
		exec:          exec,
		catalog:       catalog,
		extractionKey: defs[0].OutputKey,
		terminalKey:   defs[len(defs)-1].OutputKey,
	}, nil
}

// Stages returns the stage definitions in execution order.
func (p *Controller) Stages() []StageDef {
	return p.stages
}

// Run executes all stages for one product and derives the final profile
// from the terminal stage's result. On failure it returns a *StageError;
// the shared context is discarded either way.
func (p *Controller) Run(ctx context.Context, req Request) (*ProductProfile, error) {
	timer := logging.StartTimer(logging.CategoryPipeline, fmt.Sprintf("run %s", req.ProductName))
	defer timer.StopWithInfo()

	shared := NewContext()

	baseBindings := map[string]string{
		"product_name": req.ProductName,
		"image_count":  strconv.Itoa(len(req.Images)),
	}

	for i, def := range p.stages {
		logging.Pipeline("%s: stage %d/%d %s starting", req.ProductName, i+1, len(p.stages), def.ID)

		bindings := make(map[string]string, len(baseBindings)+len(def.DependsOn))
		for k, v := range baseBindings {
			bindings[k] = v
		}
		for _, dep := range def.DependsOn {
			prev, ok := shared.Get(dep)
			if !ok {
				// Construction-time validation makes this unreachable;
				// reaching it means the controller itself is broken.
				return nil, &StageError{StageID: def.ID, Err: &DependencyError{Stage: def.ID, Key: dep}}
			}
			bindings[dep] = prev.CompactJSON()
		}

		var images []stage.ImagePayload
		if def.WantsImages {
			images = req.Images
		}

		result, err := p.exec.Run(ctx, def.Template, bindings, images, def.Output)
		if err != nil {
			logging.PipelineError("%s: stage %s failed: %v", req.ProductName, def.ID, err)
			return nil, &StageError{StageID: def.ID, Err: err}
		}

		if err := shared.Put(def.OutputKey, result); err != nil {
			return nil, &StageError{StageID: def.ID, Err: err}
		}
		logging.PipelineDebug("%s: stage %s done, key %s stored", req.ProductName, def.ID, def.OutputKey)
	}

	profile, err := p.deriveProfile(req, shared)
	if err != nil {
		lastStage := p.stages[len(p.stages)-1].ID
		return nil, &StageError{StageID: lastStage, Err: err}
	}

	logging.Pipeline("%s: run succeeded, %d/%d attributes filled",
		req.ProductName, profile.FilledCount, p.catalog.Len())
	return profile, nil
}

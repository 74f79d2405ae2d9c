// Package batch runs the pipeline over many products with bounded
// concurrency. Products are isolated: one failure is recorded and the rest
// of the batch keeps going. Result order always matches input order.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"prodlens/internal/logging"
	"prodlens/internal/pipeline"
	"prodlens/internal/stage"
)

// Item is one product queued for processing.
type Item struct {
	Name   string
	Images []stage.ImagePayload
}

// Outcome is the per-product record in a batch result. Exactly one of
// Profile or Error is populated.
type Outcome struct {
	ProductName string                   `json:"product_name"`
	ImageCount  int                      `json:"image_count"`
	Status      pipeline.RunState        `json:"status"`
	Profile     *pipeline.ProductProfile `json:"profile,omitempty"`
	FailedStage string                   `json:"failed_stage,omitempty"`
	ErrorKind   string                   `json:"error_kind,omitempty"`
	Error       string                   `json:"error,omitempty"`
	Elapsed     time.Duration            `json:"elapsed_ns"`
}

// Result is one completed batch run.
type Result struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Outcomes  []Outcome     `json:"outcomes"`
}

// Runner drives pipeline runs for batches of products.
type Runner struct {
	controller  *pipeline.Controller
	concurrency int
}

// NewRunner creates a batch runner. Concurrency below 1 is clamped to 1
// (strictly sequential).
func NewRunner(controller *pipeline.Controller, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{controller: controller, concurrency: concurrency}
}

// Run processes every item and returns one outcome per item, in input
// order. Item failures never abort the batch; only context cancellation
// stops it early, and items not yet finished are marked failed with the
// context error.
func (r *Runner) Run(ctx context.Context, items []Item) *Result {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(items)),
	}
	logging.Batch("run %s: %d products, concurrency %d", result.RunID, len(items), r.concurrency)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)

	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			result.Outcomes[i] = r.runOne(groupCtx, item)
			// Item errors are recorded in the outcome, never returned:
			// returning one would cancel the sibling goroutines.
			return nil
		})
	}
	group.Wait()

	result.Elapsed = time.Since(result.StartedAt)
	succeeded := 0
	for _, o := range result.Outcomes {
		if o.Status == pipeline.StateSucceeded {
			succeeded++
		}
	}
	logging.Batch("run %s: done in %v, %d/%d succeeded",
		result.RunID, result.Elapsed, succeeded, len(items))
	return result
}

// runOne executes the pipeline for a single item and folds any failure into
// the outcome.
func (r *Runner) runOne(ctx context.Context, item Item) Outcome {
	out := Outcome{
		ProductName: item.Name,
		ImageCount:  len(item.Images),
	}
	start := time.Now()

	if len(item.Images) == 0 {
		out.Status = pipeline.StateFailed
		out.ErrorKind = "no_images"
		out.Error = "no images found for product"
		logging.BatchError("%s: skipped, no images", item.Name)
		return out
	}
	if err := ctx.Err(); err != nil {
		out.Status = pipeline.StateFailed
		out.ErrorKind = "canceled"
		out.Error = err.Error()
		return out
	}

	profile, err := r.controller.Run(ctx, pipeline.Request{
		ProductName: item.Name,
		Images:      item.Images,
	})
	out.Elapsed = time.Since(start)

	if err != nil {
		out.Status = pipeline.StateFailed
		out.Error = err.Error()
		out.ErrorKind = classify(err)
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			out.FailedStage = stageErr.StageID
		}
		logging.BatchError("%s: failed at stage %s (%s) after %v",
			item.Name, out.FailedStage, out.ErrorKind, out.Elapsed)
		return out
	}

	out.Status = pipeline.StateSucceeded
	out.Profile = profile
	logging.Batch("%s: succeeded in %v, %d attributes filled",
		item.Name, out.Elapsed, profile.FilledCount)
	return out
}

// classify maps an error to a stable kind string for reports and storage.
func classify(err error) string {
	var bindErr *stage.BindingError
	var callErr *stage.ExternalCallError
	var malformedErr *stage.MalformedResponseError
	var depErr *pipeline.DependencyError
	switch {
	case errors.As(err, &bindErr):
		return "binding"
	case errors.As(err, &callErr):
		return "external_call"
	case errors.As(err, &malformedErr):
		return "malformed_response"
	case errors.As(err, &depErr):
		return "dependency"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

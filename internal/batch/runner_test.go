package batch

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"prodlens/internal/pipeline"
	"prodlens/internal/prompt"
	"prodlens/internal/schema"
	"prodlens/internal/stage"
)

// fakeModel answers the three camera stages with minimal valid payloads and
// fails every stage for products whose name contains failOn.
type fakeModel struct {
	failOn string
	calls  atomic.Int64
}

func (f *fakeModel) Invoke(ctx context.Context, promptText string, images []stage.ImagePayload) (string, error) {
	f.calls.Add(1)
	if f.failOn != "" && strings.Contains(promptText, f.failOn) {
		return "", fmt.Errorf("model unavailable")
	}
	switch {
	case strings.Contains(promptText, "search planner") || strings.Contains(promptText, "research planner"):
		return `{"search_queries": [{"query": "specs"}]}`, nil
	case strings.Contains(promptText, "enrichment"):
		return `{"attributes": {"Color": "Black"}, "sources_used": ["image"]}`, nil
	default:
		return `{"attributes": {"Color": "Black"}}`, nil
	}
}

func newTestRunner(t *testing.T, model stage.Invoker, concurrency int) *Runner {
	t.Helper()
	catalog := schema.CameraCatalog()
	ctrl, err := pipeline.NewController(stage.NewExecutor(model), catalog, prompt.CameraStages(catalog))
	require.NoError(t, err)
	return NewRunner(ctrl, concurrency)
}

func oneImage() []stage.ImagePayload {
	return []stage.ImagePayload{{Name: "front.jpg", MIME: "image/jpeg", Data: []byte{0xFF}}}
}

func TestRunnerIsolatesFailuresAndPreservesOrder(t *testing.T) {
	model := &fakeModel{failOn: "Broken Cam"}
	runner := newTestRunner(t, model, 1)

	items := []Item{
		{Name: "Alpha Cam", Images: oneImage()},
		{Name: "Broken Cam", Images: oneImage()},
		{Name: "Zulu Cam", Images: oneImage()},
	}
	result := runner.Run(context.Background(), items)

	require.Len(t, result.Outcomes, 3)
	assert.NotEmpty(t, result.RunID)

	for i, item := range items {
		assert.Equal(t, item.Name, result.Outcomes[i].ProductName, "order must match input")
	}
	assert.Equal(t, pipeline.StateSucceeded, result.Outcomes[0].Status)
	assert.Equal(t, pipeline.StateFailed, result.Outcomes[1].Status)
	assert.Equal(t, pipeline.StateSucceeded, result.Outcomes[2].Status)

	failed := result.Outcomes[1]
	assert.Equal(t, "image_extraction", failed.FailedStage)
	assert.Equal(t, "external_call", failed.ErrorKind)
	assert.Nil(t, failed.Profile)
	require.NotNil(t, result.Outcomes[0].Profile)
	assert.Equal(t, "Alpha Cam", result.Outcomes[0].Profile.ProductName)
}

func TestRunnerConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	model := &fakeModel{}
	runner := newTestRunner(t, model, 4)

	items := make([]Item, 8)
	for i := range items {
		items[i] = Item{Name: fmt.Sprintf("Cam %02d", i), Images: oneImage()}
	}
	result := runner.Run(context.Background(), items)

	require.Len(t, result.Outcomes, 8)
	for i, out := range result.Outcomes {
		assert.Equal(t, fmt.Sprintf("Cam %02d", i), out.ProductName)
		assert.Equal(t, pipeline.StateSucceeded, out.Status)
	}
	// 3 stages per product.
	assert.Equal(t, int64(24), model.calls.Load())
}

func TestRunnerSkipsProductsWithoutImages(t *testing.T) {
	model := &fakeModel{}
	runner := newTestRunner(t, model, 1)

	result := runner.Run(context.Background(), []Item{{Name: "No Photos"}})

	require.Len(t, result.Outcomes, 1)
	out := result.Outcomes[0]
	assert.Equal(t, pipeline.StateFailed, out.Status)
	assert.Equal(t, "no_images", out.ErrorKind)
	assert.Equal(t, int64(0), model.calls.Load(), "model must not be called for an empty image set")
}

func TestRunnerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &fakeModel{}
	runner := newTestRunner(t, model, 2)
	result := runner.Run(ctx, []Item{
		{Name: "A", Images: oneImage()},
		{Name: "B", Images: oneImage()},
	})

	require.Len(t, result.Outcomes, 2)
	for _, out := range result.Outcomes {
		assert.Equal(t, pipeline.StateFailed, out.Status)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pipeline.StageError{StageID: "s", Err: &stage.BindingError{Stage: "s", Placeholder: "p"}}, "binding"},
		{&pipeline.StageError{StageID: "s", Err: &stage.ExternalCallError{Stage: "s", Err: fmt.Errorf("x")}}, "external_call"},
		{&pipeline.StageError{StageID: "s", Err: &stage.MalformedResponseError{Stage: "s", Reason: "r"}}, "malformed_response"},
		{&pipeline.DependencyError{Stage: "s", Key: "k"}, "dependency"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.err), "classify(%v)", tt.err)
	}
}

func TestComputeStats(t *testing.T) {
	model := &fakeModel{failOn: "Broken"}
	runner := newTestRunner(t, model, 1)

	result := runner.Run(context.Background(), []Item{
		{Name: "Good One", Images: oneImage()},
		{Name: "Broken", Images: oneImage()},
		{Name: "Good Two", Images: oneImage()},
		{Name: "Good Three", Images: oneImage()},
	})

	stats := ComputeStats(result, schema.CameraCatalog())
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.InDelta(t, 0.75, stats.SuccessRate, 1e-9)
	assert.Equal(t, 4, stats.TotalImages)

	// Every successful profile fills Color and nothing else.
	assert.InDelta(t, 1.0, stats.FillRate["Color"], 1e-9)
	assert.InDelta(t, 0.0, stats.FillRate["Weight"], 1e-9)
	assert.Len(t, stats.FillOrder, schema.CameraCatalog().Len())
	require.Len(t, stats.FailedProducts, 1)
	assert.Equal(t, "Broken", stats.FailedProducts[0].ProductName)
}

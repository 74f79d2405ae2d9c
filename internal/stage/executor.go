// Package stage implements the stage executor: render an instruction
// template against explicit bindings, issue exactly one model call, and
// parse the textual response into a structured result or fail.
package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prodlens/internal/logging"
	"prodlens/internal/schema"
)

// ImagePayload is one already-resolved product image handed to the model.
type ImagePayload struct {
	Name string
	MIME string
	Data []byte
}

// Invoker is the external model boundary: one call, one raw text response.
// Transport, quota and API keys live behind this interface.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, images []ImagePayload) (string, error)
}

// OutputSchema declares the top-level fields a stage's response must carry.
type OutputSchema struct {
	Required []string
}

// Executor runs one stage invocation end to end. It performs no retries;
// retry policy belongs to the caller (see gemini.RetryInvoker).
type Executor struct {
	invoker Invoker
}

// NewExecutor creates an executor over the given invoker.
func NewExecutor(invoker Invoker) *Executor {
	return &Executor{invoker: invoker}
}

// Run renders the template, issues the model call, and parses the response.
// Error kinds: *BindingError, *ExternalCallError, *MalformedResponseError.
func (e *Executor) Run(ctx context.Context, tmpl Template, bindings map[string]string, images []ImagePayload, out OutputSchema) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryStage, fmt.Sprintf("stage %s", tmpl.Name))
	defer timer.Stop()

	prompt, err := tmpl.Render(bindings)
	if err != nil {
		logging.StageError("%s: render failed: %v", tmpl.Name, err)
		return nil, err
	}
	logging.StageDebug("%s: prompt_len=%d images=%d", tmpl.Name, len(prompt), len(images))

	start := time.Now()
	raw, err := e.invoker.Invoke(ctx, prompt, images)
	if err != nil {
		logging.StageError("%s: invocation failed after %v: %v", tmpl.Name, time.Since(start), err)
		return nil, &ExternalCallError{Stage: tmpl.Name, Err: err}
	}
	logging.Stage("%s: response_len=%d in %v", tmpl.Name, len(raw), time.Since(start))

	return e.parse(tmpl.Name, raw, out)
}

// parse applies the strict structured parse plus the one leniency rule
// (confidence normalization).
func (e *Executor) parse(stageName, raw string, out OutputSchema) (*Result, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, &MalformedResponseError{Stage: stageName, Reason: "no JSON object in response"}
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &fields); err != nil {
		return nil, &MalformedResponseError{Stage: stageName, Reason: "JSON parse failed", Err: err}
	}

	for _, name := range out.Required {
		if _, ok := fields[name]; !ok {
			return nil, &MalformedResponseError{
				Stage:  stageName,
				Reason: fmt.Sprintf("required field %q missing", name),
			}
		}
	}

	result := &Result{
		Raw:        json.RawMessage(jsonStr),
		Fields:     fields,
		Confidence: schema.ConfidenceMedium,
	}

	// Models are inconsistent about the confidence key; accept either.
	for _, key := range []string{"confidence", "confidence_score"} {
		rawConf, ok := fields[key].(string)
		if !ok {
			continue
		}
		conf, valid := schema.NormalizeConfidence(rawConf)
		result.Confidence = conf
		if !valid {
			warning := fmt.Sprintf("unknown confidence %q normalized to %q", rawConf, conf)
			result.Warnings = append(result.Warnings, warning)
			logging.StageWarn("%s: %s", stageName, warning)
		}
		break
	}

	return result, nil
}

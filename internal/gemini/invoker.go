// Package gemini implements the stage executor's model boundary on top of
// the Google GenAI API. One Invoke is one GenerateContent call; retries are
// a separate, caller-composed concern (RetryInvoker).
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"prodlens/internal/logging"
	"prodlens/internal/stage"
)

// Config configures the Gemini invoker.
type Config struct {
	APIKey          string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int32
}

// DefaultConfig returns sensible defaults for the given API key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		Model:           "gemini-3-flash-preview",
		Timeout:         5 * time.Minute,
		MaxOutputTokens: 65536,
	}
}

// Invoker issues vision/text generation calls against Gemini.
type Invoker struct {
	client          *genai.Client
	model           string
	timeout         time.Duration
	maxOutputTokens int32

	mu          sync.Mutex
	lastRequest time.Time
}

// NewInvoker creates a Gemini-backed invoker.
func NewInvoker(ctx context.Context, cfg Config) (*Invoker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultConfig("").Model
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig("").Timeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Invoker{
		client:          client,
		model:           model,
		timeout:         timeout,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

// Model returns the configured model name.
func (inv *Invoker) Model() string {
	return inv.model
}

// Invoke sends the prompt (plus inline image parts, if any) and returns the
// raw text response. Exactly one API call per invocation.
func (inv *Invoker) Invoke(ctx context.Context, prompt string, images []stage.ImagePayload) (string, error) {
	// Auto-apply timeout if the context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	// Keep a floor between consecutive requests.
	inv.mu.Lock()
	if elapsed := time.Since(inv.lastRequest); elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	inv.lastRequest = time.Now()
	inv.mu.Unlock()

	start := time.Now()
	logging.GeminiDebug("Invoke: model=%s prompt_len=%d images=%d", inv.model, len(prompt), len(images))

	parts := make([]*genai.Part, 0, 1+len(images))
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, img := range images {
		mime := img.MIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if inv.maxOutputTokens > 0 {
		config.MaxOutputTokens = inv.maxOutputTokens
	}

	resp, err := inv.client.Models.GenerateContent(ctx, inv.model, contents, config)
	if err != nil {
		logging.GeminiError("Invoke: request failed after %v: %v", time.Since(start), err)
		return "", fmt.Errorf("GenAI call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		logging.GeminiError("Invoke: empty completion after %v", time.Since(start))
		return "", fmt.Errorf("no completion returned")
	}

	logging.Gemini("Invoke: completed in %v response_len=%d", time.Since(start), len(text))
	return text, nil
}

package pipeline

import (
	"fmt"

	"prodlens/internal/stage"
)

// Context is the shared stage context for one pipeline run: a mapping from
// stage key to that stage's result. Keys are added in stage order and never
// removed or overwritten. A Context is owned by exactly one run and is
// discarded when the run returns, so no locking is needed.
type Context struct {
	results map[string]*stage.Result
	order   []string
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{results: make(map[string]*stage.Result)}
}

// Put stores a stage result under its output key. A key may be written at
// most once per run; a second write is a controller bug, not a runtime
// condition, and is rejected.
func (c *Context) Put(key string, result *stage.Result) error {
	if _, exists := c.results[key]; exists {
		return fmt.Errorf("stage key %q already written", key)
	}
	c.results[key] = result
	c.order = append(c.order, key)
	return nil
}

// Get returns the result stored under key, if any.
func (c *Context) Get(key string) (*stage.Result, bool) {
	r, ok := c.results[key]
	return r, ok
}

// Keys returns the stored keys in write order.
func (c *Context) Keys() []string {
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}

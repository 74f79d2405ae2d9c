package stage

import (
	"errors"
	"fmt"
)

// BindingError reports a required placeholder with no binding.
// Fatal to the stage; the pipeline run for this product aborts.
type BindingError struct {
	Stage       string
	Placeholder string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("stage %s: no binding for required placeholder %q", e.Stage, e.Placeholder)
}

// MalformedResponseError reports a model response that could not be parsed
// into the expected structured shape, or that omitted required fields.
type MalformedResponseError struct {
	Stage  string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stage %s: malformed response: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("stage %s: malformed response: %s", e.Stage, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ExternalCallError reports a transport/quota-level failure of the model
// call, including timeouts. Eligible for caller-level retry with backoff;
// the executor itself never retries.
type ExternalCallError struct {
	Stage string
	Err   error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("stage %s: external call failed: %v", e.Stage, e.Err)
}

func (e *ExternalCallError) Unwrap() error { return e.Err }

// Retryable reports whether err is an external-call failure that a retry
// wrapper may reasonably re-attempt. Binding and parse failures are not.
func Retryable(err error) bool {
	var ec *ExternalCallError
	return errors.As(err, &ec)
}

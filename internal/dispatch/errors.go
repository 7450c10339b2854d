package dispatch

import "fmt"

// ModelNotFoundError reports a lookup miss against the model registry.
// Available carries the currently loaded model identifiers for diagnostics.
type ModelNotFoundError struct {
	Model     string
	Available []string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not available", e.Model)
}

// InferenceError wraps a failure from the embedding backend. The wrapped error
// is logged internally but never forwarded to clients.
type InferenceError struct {
	Model string
	Err   error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("embedding generation failed for model %q: %v", e.Model, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

package search

import (
	"fmt"
	"strings"
)

// SchemaError reports a collaborator response that parsed as JSON but
// violates the batch schema. It is terminal: the same prompt against the
// same model state will not repair a structural violation, so the client
// does not retry it.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("response failed schema validation: %s", strings.Join(e.Violations, "; "))
}

// ExhaustedError reports that every fetch attempt failed. It carries the
// attempt count and the last underlying cause.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("search failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

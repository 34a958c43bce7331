package core

import "fmt"

// WorkflowError marks a pipeline stage that failed to degrade to a value.
// The controller converts it into a terminal error outcome, never a crash.
type WorkflowError struct {
	Stage string
	Err   error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow stage %s: %v", e.Stage, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

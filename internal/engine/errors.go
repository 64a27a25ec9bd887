package engine

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotExecutable is reported for kinds that only hold data
	ErrNotExecutable = errors.New("node kind is not executable")

	// ErrNoProvider is returned when the collaborator a strategy needs was not configured
	ErrNoProvider = errors.New("provider not configured")

	ErrFluxTextOnly      = errors.New("FLUX.1-schnell is text-to-image only.")
	ErrPromptRequired    = errors.New("Prompt is required.")
	ErrPix2PixDisabled   = errors.New("Instruct-Pix2Pix is currently unavailable.")
	ErrDescribeFailed    = errors.New("Could not describe the input image.")
	ErrUnknownImageModel = errors.New("Unknown image model.")
)

// ExecutionError represents an error during a node run
type ExecutionError struct {
	// Phase is the execution phase where the error occurred
	Phase string
	// Node is the ID of the node being executed
	Node string
	// Err is the underlying error
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: %s: node '%s': %v", e.Phase, e.Node, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError creates a new ExecutionError
func NewExecutionError(phase string, node string, err error) error {
	return &ExecutionError{
		Phase: phase,
		Node:  node,
		Err:   err,
	}
}

// userMessage turns a run failure into the text stored on the node.
func userMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out."
	case errors.Is(err, context.Canceled):
		return "Run was cancelled."
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to run node"
}

package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound is returned when referencing a non-existent node
	ErrNodeNotFound = errors.New("node not found")

	// ErrCyclicDependency is returned when a cycle is detected in the graph
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrWrongNodeKind is returned when an operation does not apply to the node's kind
	ErrWrongNodeKind = errors.New("operation not supported for node kind")

	// ErrInputLimit is returned when a node already declares the maximum number of image inputs
	ErrInputLimit = errors.New("image input limit reached")
)

// ValidationError represents an error that occurs during graph validation
type ValidationError struct {
	// Op is the operation that failed
	Op string
	// Node is the ID of the node involved (if any)
	Node string
	// Err is the underlying error
	Err error
}

func (e *ValidationError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("validation failed: %s: node '%s': %v", e.Op, e.Node, e.Err)
	}
	return fmt.Sprintf("validation failed: %s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(op string, node string, err error) error {
	return &ValidationError{
		Op:   op,
		Node: node,
		Err:  err,
	}
}

package operation

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bpmcore/core"
)

// ErrInvalidValue is returned when a value does not have the shape a
// handler or strategy requires.
var ErrInvalidValue = errors.New("invalid value")

// OperationError attributes a failure to the operation that caused it.
type OperationError struct {
	Index     int
	Operation *core.Operation
	Err       error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error { return e.Err }

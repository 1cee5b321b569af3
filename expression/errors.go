package expression

import (
	"errors"
	"fmt"
)

var (
	// ErrEvaluation is wrapped by every EvaluationError.
	ErrEvaluation = errors.New("expression evaluation failed")

	// ErrUnsupportedKind is returned when no evaluator handles an expression kind.
	ErrUnsupportedKind = errors.New("unsupported expression kind")
)

// EvaluationError reports a failure to evaluate one expression.
type EvaluationError struct {
	Expression string
	Err        error
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %q: %v", e.Expression, e.Err)
}

// Unwrap exposes the cause.
func (e *EvaluationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrEvaluation) hold for every EvaluationError.
func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

func evalErr(expr string, err error) error {
	return &EvaluationError{Expression: expr, Err: err}
}

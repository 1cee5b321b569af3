package contract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputValidation is matched by structural validation failures.
	ErrInputValidation = errors.New("input validation failed")

	// ErrContractViolation is matched by failed business constraints.
	ErrContractViolation = errors.New("contract violation")
)

// InputValidationError is raised by TypeValidator when a value cannot be
// assigned to its declared input.
type InputValidationError struct {
	Input    string
	Messages []string
}

// Error implements the error interface.
func (e *InputValidationError) Error() string {
	return fmt.Sprintf("input [%s]: %s", e.Input, strings.Join(e.Messages, "; "))
}

// Is makes errors.Is(err, ErrInputValidation) hold.
func (e *InputValidationError) Is(target error) bool { return target == ErrInputValidation }

// StructureError aggregates every structural problem found in one run.
type StructureError struct {
	Problems []string
}

// Error implements the error interface.
func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInputValidation, strings.Join(e.Problems, ", "))
}

// Is makes errors.Is(err, ErrInputValidation) hold.
func (e *StructureError) Is(target error) bool { return target == ErrInputValidation }

// ViolationError carries the explanations of every failed constraint.
type ViolationError struct {
	Explanations []string
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrContractViolation, strings.Join(e.Explanations, ", "))
}

// Is makes errors.Is(err, ErrContractViolation) hold.
func (e *ViolationError) Is(target error) bool { return target == ErrContractViolation }

// Problems extracts the accumulated messages of a structural or constraint
// failure; other errors yield their own message.
func Problems(err error) []string {
	var se *StructureError
	if errors.As(err, &se) {
		return append([]string(nil), se.Problems...)
	}
	var ve *ViolationError
	if errors.As(err, &ve) {
		return append([]string(nil), ve.Explanations...)
	}
	if err == nil {
		return nil
	}
	return []string{err.Error()}
}

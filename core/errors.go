package core

import "errors"

var (
	// ErrNotFound is returned when a store holds no value for a key.
	ErrNotFound = errors.New("not found")

	// ErrUnknownCategory is returned when no handler is registered for a
	// left operand category.
	ErrUnknownCategory = errors.New("unknown left operand category")

	// ErrUnknownOperator is returned when no strategy is registered for an
	// operator kind.
	ErrUnknownOperator = errors.New("unknown operator kind")

	// ErrDeletionUnsupported is returned by handlers whose category cannot
	// be deleted.
	ErrDeletionUnsupported = errors.New("deletion not supported")

	// ErrInvalidDefinition is returned for malformed contract definitions.
	ErrInvalidDefinition = errors.New("invalid definition")
)

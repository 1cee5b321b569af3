package operation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/bpmcore/core"
)

// ExecutorStrategy computes the new value of a left operand for one
// operator kind.
type ExecutorStrategy interface {
	Kind() core.OperatorKind
	// ComputeNewValue derives the new value from the current working value
	// and the evaluated right operand. shouldPersist reports whether the
	// result is going to be persisted right away.
	ComputeNewValue(ctx context.Context, op *core.Operation, current, result any, ec *ExecutionContext, shouldPersist bool) (any, error)
	// PersistsOnNull reports whether a nil result is written through.
	PersistsOnNull() bool
}

// StrategyRegistry maps operator kinds to strategies.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[core.OperatorKind]ExecutorStrategy
}

// NewStrategyRegistry creates a registry holding the given strategies.
func NewStrategyRegistry(strategies ...ExecutorStrategy) *StrategyRegistry {
	r := &StrategyRegistry{strategies: make(map[core.OperatorKind]ExecutorStrategy, len(strategies))}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// DefaultStrategies returns a registry with the assignment, scripted
// method, query update and deletion strategies.
func DefaultStrategies() *StrategyRegistry {
	return NewStrategyRegistry(
		AssignmentStrategy{},
		ScriptedMethodStrategy{},
		QueryUpdateStrategy{},
		DeletionStrategy{},
	)
}

// Register installs (or replaces) the strategy for its kind.
func (r *StrategyRegistry) Register(s ExecutorStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Kind()] = s
}

// Get returns the strategy for kind or an error wrapping core.ErrUnknownOperator.
func (r *StrategyRegistry) Get(kind core.OperatorKind) (ExecutorStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownOperator, kind)
	}
	return s, nil
}

// AssignmentStrategy replaces the current value with the evaluated result.
type AssignmentStrategy struct{}

// Kind implements ExecutorStrategy.
func (AssignmentStrategy) Kind() core.OperatorKind { return core.OperatorAssignment }

// ComputeNewValue implements ExecutorStrategy.
func (AssignmentStrategy) ComputeNewValue(_ context.Context, _ *core.Operation, _, result any, _ *ExecutionContext, _ bool) (any, error) {
	return result, nil
}

// PersistsOnNull implements ExecutorStrategy.
func (AssignmentStrategy) PersistsOnNull() bool { return true }

// DeletionStrategy always yields nil.
type DeletionStrategy struct{}

// Kind implements ExecutorStrategy.
func (DeletionStrategy) Kind() core.OperatorKind { return core.OperatorDeletion }

// ComputeNewValue implements ExecutorStrategy.
func (DeletionStrategy) ComputeNewValue(context.Context, *core.Operation, any, any, *ExecutionContext, bool) (any, error) {
	return nil, nil
}

// PersistsOnNull implements ExecutorStrategy.
func (DeletionStrategy) PersistsOnNull() bool { return true }

var (
	_ ExecutorStrategy = AssignmentStrategy{}
	_ ExecutorStrategy = DeletionStrategy{}
	_ ExecutorStrategy = ScriptedMethodStrategy{}
	_ ExecutorStrategy = QueryUpdateStrategy{}
)

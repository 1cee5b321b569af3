package engine

import (
	"context"
	"fmt"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/operation"
)

// CallbackType defines the specific lifecycle points where callbacks can be executed.
//
// Callbacks provide a flexible mechanism for hooking into the batch
// pipeline without modifying core logic. Each type represents a specific
// point in the execution lifecycle where custom logic can be injected.
//
// Available callback types:
//   - BeforeOperation/AfterOperation: Around each operation of the execute phase
//   - BeforeCommit: Before the single write a target receives
//   - OnError: When a batch fails
//
// Callbacks are executed synchronously and can influence execution flow
// by returning errors that abort the batch. Errors returned by OnError
// callbacks are ignored.
type CallbackType string

const (
	// CallbackBeforeOperation is triggered before an operation's right
	// operand is evaluated.
	CallbackBeforeOperation CallbackType = "before_operation"

	// CallbackAfterOperation is triggered after the new value was written
	// into the working set.
	CallbackAfterOperation CallbackType = "after_operation"

	// CallbackBeforeCommit is triggered before a target is updated or deleted.
	// Use for validation or auditing of durable writes.
	CallbackBeforeCommit CallbackType = "before_commit"

	// CallbackOnError is triggered when a batch fails.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext provides context information for callback execution.
//
// The context is populated by the engine and passed to each callback.
// Fields that do not apply to a callback type are left zero: Operation is
// nil outside the execute phase and Index is -1.
type CallbackContext struct {
	// Execution is the batch's working set.
	Execution *operation.ExecutionContext

	// BatchID identifies the batch.
	BatchID string

	// Index is the position of Operation in the batch.
	Index int

	// Operation is the operation being executed.
	Operation *core.Operation

	// LeftOperand is the target being committed.
	LeftOperand core.LeftOperand

	// Value is the computed (AfterOperation) or committed (BeforeCommit) value.
	Value any

	// Action is the commit action for BeforeCommit.
	Action operation.FinalAction

	// Err is the batch failure for OnError.
	Err error

	// CallbackType indicates which callback type triggered this execution.
	CallbackType CallbackType

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for execution lifecycle hooks.
//
// Implementations should be fast, since callbacks run synchronously and
// block the batch.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic with the provided context.
	// Returning an error will abort the batch.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	audit := NewFunctionCallback(
//	    CallbackBeforeCommit,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        log.Printf("%s %s", cc.Action, cc.LeftOperand)
//	        return nil
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType {
	return c.callbackType
}

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager orchestrates callback execution throughout the batch lifecycle.
//
// Callbacks are executed in registration order, and any callback returning
// an error will terminate execution and prevent subsequent callbacks from running.
//
// Thread Safety:
// Register all callbacks before the engine executes batches; execution is
// then safe for concurrent use.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates a new callback manager instance.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback to the manager for its type.
//
// Example:
//
//	manager := NewCallbackManager()
//	manager.RegisterCallback(loggingCallback)
//	manager.RegisterCallback(NewValueValidationCallback(check))
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all registered callbacks for the specified type.
//
// Callbacks are executed sequentially in registration order. If any callback
// returns an error, execution stops immediately and the error is returned.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	callbacks, exists := cm.callbacks[callbackType]
	if !exists {
		return nil
	}

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("callback %s: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback forwards lifecycle events to a logging function.
//
// Example:
//
//	logger := func(message string) {
//	    log.Printf("[ENGINE] %s", message)
//	}
//	callback := NewLoggingCallback(CallbackAfterOperation, logger)
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType {
	return c.callbackType
}

// Execute logs the lifecycle event. If no logger function is configured,
// the callback silently succeeds.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}
	switch {
	case callbackCtx.Operation != nil:
		c.logger(fmt.Sprintf("[%s] batch=%s #%d %s", c.callbackType, callbackCtx.BatchID, callbackCtx.Index, callbackCtx.Operation))
	case callbackCtx.Err != nil:
		c.logger(fmt.Sprintf("[%s] batch=%s error=%v", c.callbackType, callbackCtx.BatchID, callbackCtx.Err))
	default:
		c.logger(fmt.Sprintf("[%s] batch=%s %s %s", c.callbackType, callbackCtx.BatchID, callbackCtx.Action, callbackCtx.LeftOperand))
	}
	return nil
}

// ValueValidationCallback validates the values about to be committed.
//
// The validation function receives each updated target with its final
// value and can return an error to abort the batch before the write.
// Deletions are not validated.
//
// Example:
//
//	validator := func(lo core.LeftOperand, value any) error {
//	    if lo.Name == "amount" && value == nil {
//	        return errors.New("amount cannot be nil")
//	    }
//	    return nil
//	}
//	callback := NewValueValidationCallback(validator)
type ValueValidationCallback struct {
	validator func(lo core.LeftOperand, value any) error
}

// NewValueValidationCallback creates a new value validation callback.
func NewValueValidationCallback(validator func(lo core.LeftOperand, value any) error) *ValueValidationCallback {
	return &ValueValidationCallback{
		validator: validator,
	}
}

// Type returns the callback type (always CallbackBeforeCommit).
func (c *ValueValidationCallback) Type() CallbackType {
	return CallbackBeforeCommit
}

// Execute validates the committed value of an update.
func (c *ValueValidationCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.validator == nil || callbackCtx.Action != operation.ActionUpdate {
		return nil
	}
	return c.validator(callbackCtx.LeftOperand, callbackCtx.Value)
}

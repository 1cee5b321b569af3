// Package engine executes batches of data-assignment operations.
//
// An Engine is the operation execution service of the runtime. A batch is
// an ordered list of core.Operation values run against one container's
// working set (operation.ExecutionContext). Execution happens in three
// phases, each traced as an OpenTelemetry span below the batch span
// operation.execute:
//
//	┌──────────┐    ┌───────────┐    ┌──────────┐
//	│   load   │ -> │  execute  │ -> │  commit  │
//	└──────────┘    └───────────┘    └──────────┘
//
// # Load
//
// Operations are grouped by left operand category. Targets touched only by
// assignments are skipped, since an assignment never needs the prior
// value. Each remaining category is read with one handler call and the
// result seeds the working set without replacing caller supplied values.
//
// # Execute
//
// Operations run in list order:
//  1. The right operand is evaluated against the working set plus the
//     containerId, containerType and definitionId bindings.
//  2. The operator kind's strategy computes the new value.
//  3. For business data, the value is persisted immediately when this is
//     the target's last write or a later operation, before the next write
//     to the same target, references it.
//  4. The value is written into the working set.
//  5. The target's final action is recorded. A deletion always wins.
//
// # Commit
//
// Every target touched by the batch receives exactly one handler call:
// Update with its final working value, or Delete. N operations on the
// same target never produce more than one durable write.
//
// # Failure
//
// An evaluator, strategy, callback or handler failure aborts the batch.
// Failures before the commit phase leave the container's stores untouched
// apart from early business data writes; rolling back a partially applied
// commit is up to the caller's transaction. Errors raised in the execute
// phase are wrapped in *operation.OperationError.
//
// # Usage
//
//	eng := engine.New(func(o *engine.Options) {
//	    o.Logger = logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	})
//	ec := operation.NewExecutionContext(container, definitionID, nil)
//	res, err := eng.Execute(ctx, ec, ops)
package engine

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/bpmcore/businessdata"
	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/document"
	"github.com/hupe1980/bpmcore/expression"
	"github.com/hupe1980/bpmcore/external"
	"github.com/hupe1980/bpmcore/logging"
	"github.com/hupe1980/bpmcore/operation"
	"github.com/hupe1980/bpmcore/variable"
)

// ErrBatchTooLarge is returned when a batch exceeds Config.MaxOperations.
var ErrBatchTooLarge = errors.New("operation batch too large")

// Config defines tuning parameters for the Engine's operational behavior.
//
// Example:
//
//	cfg := Config{
//	    MaxOperations: 500,
//	    TracerName:    "my-service/engine",
//	}
type Config struct {
	// MaxOperations rejects batches with more operations. Set to 0 for
	// unlimited.
	MaxOperations int

	// TracerName names the OpenTelemetry tracer used for batch and phase spans.
	TracerName string
}

// DefaultConfig provides default configuration values.
//
// Configuration values:
//   - MaxOperations: 10000 (guards against runaway generated batches)
//   - TracerName: the engine package path
var DefaultConfig = Config{
	MaxOperations: 10000,
	TracerName:    "github.com/hupe1980/bpmcore/engine",
}

// Options configures an Engine instance using the functional options pattern.
//
// Every store has an in-memory default, so New() alone yields a working
// engine for development and tests. When Handlers is set the store fields
// are ignored.
//
// Example:
//
//	eng := New(func(o *Options) {
//	    o.VariableStore = gormVariables
//	    o.BusinessData = gormRepository
//	    o.Logger = logger
//	})
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Evaluator computes right operands. Defaults to expression.NewComposite().
	Evaluator expression.Evaluator

	// Strategies maps operator kinds to executors. Defaults to
	// operation.DefaultStrategies().
	Strategies *operation.StrategyRegistry

	// Handlers maps left operand categories to handlers. Defaults to one
	// handler per category built from the stores below.
	Handlers *operation.HandlerRegistry

	// Store dependencies - all have in-memory defaults.

	// VariableStore backs DATA left operands.
	VariableStore core.VariableStore

	// TransientStore backs TRANSIENT_DATA left operands.
	TransientStore core.VariableStore

	// DocumentStore backs DOCUMENT left operands.
	DocumentStore core.DocumentStore

	// BusinessData backs BUSINESS_DATA left operands.
	BusinessData core.BusinessDataRepository

	// ExternalStore backs EXTERNAL_DATA left operands.
	ExternalStore core.KVStore

	// Callbacks hooks into the batch lifecycle. Optional.
	Callbacks *CallbackManager

	// TracerProvider defaults to the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil to ensure no logging dependencies.
	Logger logging.Logger
}

// Engine executes batches of data-assignment operations against the
// container they belong to.
//
// A batch runs in three phases:
//  1. Load: for every category, the current values of the targets that are
//     not only assigned are read with one handler call and seeded into the
//     working set without replacing values the caller supplied.
//  2. Execute: operations run in list order. Each one evaluates its right
//     operand, lets its strategy compute the new value, persists business
//     data early when a later operation depends on it, writes the value
//     into the working set and records the target's final action.
//  3. Commit: every target receives exactly one handler call, Update with
//     its final working value or Delete when any operation deleted it.
//
// Any evaluator, strategy or handler failure aborts the batch before the
// commit phase starts. Transaction boundaries belong to the caller.
//
// An Engine is safe for concurrent use; each batch owns its
// operation.ExecutionContext.
type Engine struct {
	evaluator  expression.Evaluator
	strategies *operation.StrategyRegistry
	handlers   *operation.HandlerRegistry
	callbacks  *CallbackManager
	tracer     trace.Tracer
	logger     logging.Logger
	config     Config
}

// Result summarizes an executed batch.
type Result struct {
	// BatchID identifies the batch in logs and spans.
	BatchID string
	// Values is the final working set.
	Values map[string]any
	// Actions is the commit action taken per target.
	Actions map[core.LeftOperand]operation.FinalAction
	// Writes counts the handler calls of the commit phase.
	Writes int
	// Persisted counts the early business data writes of the execute phase.
	Persisted int
}

// New creates a new Engine instance with sensible defaults and optional configuration.
//
// The Engine does not take ownership of provided stores and will not manage
// their lifecycle.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Config:         DefaultConfig,
		VariableStore:  variable.NewInMemoryStore(),
		TransientStore: variable.NewInMemoryStore(),
		DocumentStore:  document.NewInMemoryStore(),
		BusinessData:   businessdata.NewInMemoryStore(),
		ExternalStore:  external.NewInMemoryStore(),
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Evaluator == nil {
		opts.Evaluator = expression.NewComposite()
	}
	if opts.Strategies == nil {
		opts.Strategies = operation.DefaultStrategies()
	}
	if opts.Handlers == nil {
		opts.Handlers = operation.NewHandlerRegistry(
			operation.NewDataHandler(opts.VariableStore),
			operation.NewTransientDataHandler(opts.TransientStore),
			operation.NewBusinessDataHandler(opts.BusinessData),
			operation.NewExternalDataHandler(opts.ExternalStore),
			operation.NewDocumentHandler(opts.DocumentStore),
		)
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.Config.TracerName == "" {
		opts.Config.TracerName = DefaultConfig.TracerName
	}

	return &Engine{
		evaluator:  opts.Evaluator,
		strategies: opts.Strategies,
		handlers:   opts.Handlers,
		callbacks:  opts.Callbacks,
		tracer:     opts.TracerProvider.Tracer(opts.Config.TracerName),
		logger:     logging.OrNoOp(opts.Logger),
		config:     opts.Config,
	}
}

// Handlers returns the handler registry, for registering custom categories.
func (e *Engine) Handlers() *operation.HandlerRegistry { return e.handlers }

// Strategies returns the strategy registry, for registering custom operator kinds.
func (e *Engine) Strategies() *operation.StrategyRegistry { return e.strategies }

// batch carries the state of one Execute call.
type batch struct {
	id        string
	ec        *operation.ExecutionContext
	ops       []*core.Operation
	actions   *operation.FinalActions
	logger    logging.Logger
	persisted int
	writes    int
}

// Execute runs ops against ec. On success the returned Result holds the
// final working set; on failure nothing has been committed, although
// business data persisted early in the execute phase may have been
// written.
func (e *Engine) Execute(ctx context.Context, ec *operation.ExecutionContext, ops []*core.Operation) (*Result, error) {
	if e.config.MaxOperations > 0 && len(ops) > e.config.MaxOperations {
		return nil, fmt.Errorf("%w: %d operations, limit %d", ErrBatchTooLarge, len(ops), e.config.MaxOperations)
	}
	for i, op := range ops {
		if op == nil {
			return nil, fmt.Errorf("operation %d is nil", i)
		}
	}

	b := &batch{
		id:      uuid.NewString(),
		ec:      ec,
		ops:     ops,
		actions: operation.NewFinalActions(),
	}
	b.logger = e.batchLogger(b.id, ec.Container())

	c := ec.Container()
	ctx, span := e.tracer.Start(ctx, "operation.execute", trace.WithAttributes(
		attribute.String("batch.id", b.id),
		attribute.Int64("container.id", c.ID),
		attribute.String("container.type", string(c.Type)),
		attribute.Int("operation.count", len(ops)),
	))
	defer span.End()

	start := time.Now()
	err := e.run(ctx, b)
	e.recordBatch(b, time.Since(start), err)

	span.SetAttributes(
		attribute.Int("operation.writes", b.writes),
		attribute.Int("operation.persisted", b.persisted),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		_ = e.callbacks.ExecuteCallbacks(ctx, CallbackOnError, &CallbackContext{
			Execution:    ec,
			BatchID:      b.id,
			Index:        -1,
			Err:          err,
			CallbackType: CallbackOnError,
		})
		return nil, err
	}

	actions := make(map[core.LeftOperand]operation.FinalAction, b.actions.Len())
	_ = b.actions.Each(func(lo core.LeftOperand, a operation.FinalAction) error {
		actions[lo] = a
		return nil
	})
	return &Result{
		BatchID:   b.id,
		Values:    ec.Values(),
		Actions:   actions,
		Writes:    b.writes,
		Persisted: b.persisted,
	}, nil
}

func (e *Engine) run(ctx context.Context, b *batch) error {
	if err := e.phase(ctx, "load", func(ctx context.Context) error { return e.load(ctx, b) }); err != nil {
		return err
	}
	if err := e.phase(ctx, "execute", func(ctx context.Context) error { return e.execute(ctx, b) }); err != nil {
		return err
	}
	return e.phase(ctx, "commit", func(ctx context.Context) error { return e.commit(ctx, b) })
}

func (e *Engine) phase(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// load reads the prior values of every target that is not only assigned,
// with one handler call per category.
func (e *Engine) load(ctx context.Context, b *batch) error {
	onlyAssigned := make(map[core.LeftOperand]bool, len(b.ops))
	for _, op := range b.ops {
		prev, seen := onlyAssigned[op.LeftOperand]
		onlyAssigned[op.LeftOperand] = (!seen || prev) && op.Kind == core.OperatorAssignment
	}

	var categories []core.Category
	names := make(map[core.Category][]string)
	queued := make(map[core.LeftOperand]bool)
	for _, op := range b.ops {
		lo := op.LeftOperand
		if onlyAssigned[lo] || queued[lo] {
			continue
		}
		queued[lo] = true
		if _, ok := names[lo.Category]; !ok {
			categories = append(categories, lo.Category)
		}
		names[lo.Category] = append(names[lo.Category], lo.Name)
	}

	for _, cat := range categories {
		h, err := e.handlers.Get(cat)
		if err != nil {
			return err
		}
		values, err := h.Load(ctx, b.ec.Container(), names[cat])
		if err != nil {
			return fmt.Errorf("load %s: %w", cat, err)
		}
		seeded := b.ec.Seed(values)
		b.logger.Debug("operation.load", "category", string(cat), "requested", len(names[cat]), "seeded", seeded)
	}
	return nil
}

func (e *Engine) execute(ctx context.Context, b *batch) error {
	resolver := operation.NewPersistenceDecisionResolver(b.ops)
	for i, op := range b.ops {
		if err := e.executeOne(ctx, b, resolver, i, op); err != nil {
			return &operation.OperationError{Index: i, Operation: op, Err: err}
		}
	}
	return nil
}

func (e *Engine) executeOne(ctx context.Context, b *batch, resolver *operation.PersistenceDecisionResolver, i int, op *core.Operation) error {
	strategy, err := e.strategies.Get(op.Kind)
	if err != nil {
		return err
	}
	handler, err := e.handlers.Get(op.LeftOperand.Category)
	if err != nil {
		return err
	}
	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeOperation, &CallbackContext{
		Execution: b.ec, BatchID: b.id, Index: i, Operation: op, CallbackType: CallbackBeforeOperation,
	}); err != nil {
		return err
	}

	result, err := e.evaluator.Evaluate(ctx, op.RightOperand, b.ec.Scope())
	if err != nil {
		return err
	}

	name := op.LeftOperand.Name
	current, _ := b.ec.Get(name)
	position := resolver.PersistPosition(i)

	value, err := strategy.ComputeNewValue(ctx, op, current, result, b.ec, position)
	if err != nil {
		return err
	}

	if op.LeftOperand.Category == core.CategoryBusinessData && operation.ShouldPersist(value, position, strategy.PersistsOnNull()) {
		if p, ok := handler.(operation.Persister); ok {
			if value, err = p.Persist(ctx, b.ec.Container(), name, value); err != nil {
				return fmt.Errorf("persist %s: %w", op.LeftOperand, err)
			}
			b.persisted++
		}
	}

	b.ec.Set(name, value)
	b.actions.Record(op.LeftOperand, op.Kind == core.OperatorDeletion)

	return e.callbacks.ExecuteCallbacks(ctx, CallbackAfterOperation, &CallbackContext{
		Execution: b.ec, BatchID: b.id, Index: i, Operation: op, Value: value, CallbackType: CallbackAfterOperation,
	})
}

// commit issues exactly one handler call per target.
func (e *Engine) commit(ctx context.Context, b *batch) error {
	return b.actions.Each(func(lo core.LeftOperand, action operation.FinalAction) error {
		h, err := e.handlers.Get(lo.Category)
		if err != nil {
			return err
		}
		value, _ := b.ec.Get(lo.Name)
		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeCommit, &CallbackContext{
			Execution: b.ec, BatchID: b.id, Index: -1, LeftOperand: lo, Value: value, Action: action, CallbackType: CallbackBeforeCommit,
		}); err != nil {
			return err
		}

		if action == operation.ActionDelete {
			err = h.Delete(ctx, b.ec.Container(), lo.Name)
		} else {
			err = h.Update(ctx, b.ec.Container(), lo.Name, value)
		}
		if err != nil {
			return fmt.Errorf("commit %s %s: %w", action, lo, err)
		}
		b.writes++
		b.logger.Debug("operation.commit", "target", lo.String(), "action", action.String())
		return nil
	})
}

func (e *Engine) batchLogger(batchID string, c core.Container) logging.Logger {
	if rl, ok := e.logger.(*logging.RuntimeLogger); ok {
		return rl.WithBatch(batchID).WithContainer(c.ID, string(c.Type))
	}
	return e.logger
}

func (e *Engine) recordBatch(b *batch, dur time.Duration, err error) {
	if bl, ok := b.logger.(interface {
		LogBatchExecution(operations, writes int, dur time.Duration, err error)
	}); ok {
		bl.LogBatchExecution(len(b.ops), b.writes, dur, err)
		return
	}
	if err != nil {
		b.logger.Error("operation.batch.failed", "batch_id", b.id, "operations", len(b.ops), "error", err)
		return
	}
	b.logger.Info("operation.batch.completed", "batch_id", b.id, "operations", len(b.ops), "writes", b.writes, "duration", dur)
}

// Package bpmcore provides a high-level facade over contract validation and
// the operation engine. Most applications interact with this package by:
//  1. Creating a Runtime via New() (optionally overriding the default
//     in-memory stores)
//  2. Submitting a task's contract inputs with Submit, which validates
//     them, archives them and runs the resulting operations
//  3. Running standalone operation batches with Execute
//
// The facade delegates validation to contract.Validator and execution to
// engine.Engine while keeping setup concise. All defaults are safe for
// local development and testing; production deployments typically supply
// GORM or Redis backed stores and a structured logger.
package bpmcore

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/bpmcore/businessdata"
	"github.com/hupe1980/bpmcore/contract"
	"github.com/hupe1980/bpmcore/contractdata"
	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/document"
	"github.com/hupe1980/bpmcore/engine"
	"github.com/hupe1980/bpmcore/expression"
	"github.com/hupe1980/bpmcore/external"
	"github.com/hupe1980/bpmcore/logging"
	"github.com/hupe1980/bpmcore/operation"
	"github.com/hupe1980/bpmcore/variable"
)

// ErrContractDataDisabled is returned by ContractData when the runtime
// does not archive contract inputs.
var ErrContractDataDisabled = errors.New("contract data archival is disabled")

// Options configures the Runtime instance.
type Options struct {
	// EngineConfig tunes operation batches.
	EngineConfig engine.Config

	// Evaluator serves both constraints and right operands. Defaults to
	// expression.NewComposite().
	Evaluator expression.Evaluator

	// ScriptPolicy applies to script constraints. Defaults to PolicyStrict.
	ScriptPolicy expression.Policy

	// RulePolicy applies to rule constraints. Defaults to PolicyLenient.
	RulePolicy expression.Policy

	// KeepContractData archives validated inputs in ContractDataStore.
	KeepContractData bool

	// Stores (defaults to in-memory implementations if not provided)
	VariableStore     core.VariableStore
	TransientStore    core.VariableStore
	DocumentStore     core.DocumentStore
	BusinessData      core.BusinessDataRepository
	ExternalStore     core.KVStore
	ContractDataStore core.ContractDataStore

	// Callbacks hooks into the batch lifecycle. Optional.
	Callbacks *engine.CallbackManager

	// TracerProvider defaults to the global OpenTelemetry provider.
	TracerProvider trace.TracerProvider

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Submission is one task completion: the inputs a user submitted for a
// contract, how they map onto data, and the operations the task declares.
type Submission struct {
	Container    core.Container
	DefinitionID int64
	Contract     *core.ContractDefinition
	Inputs       map[string]any
	// Mappings turn top-level inputs into assignments that run before
	// Operations.
	Mappings   []operation.InputMapping
	Operations []*core.Operation
	// Variables seeds the working set on top of the validated Inputs.
	// Loaded values never replace either.
	Variables map[string]any
}

// Runtime is the high-level facade aggregating the validator, the engine
// and the contract data archive.
type Runtime struct {
	opts      Options
	validator *contract.Validator
	engine    *engine.Engine
	logger    logging.Logger
}

// New creates a new Runtime with optional overrides. Any unset store is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Runtime {
	opts := Options{
		EngineConfig:      engine.DefaultConfig,
		ScriptPolicy:      expression.PolicyStrict,
		RulePolicy:        expression.PolicyLenient,
		KeepContractData:  true,
		VariableStore:     variable.NewInMemoryStore(),
		TransientStore:    variable.NewInMemoryStore(),
		DocumentStore:     document.NewInMemoryStore(),
		BusinessData:      businessdata.NewInMemoryStore(),
		ExternalStore:     external.NewInMemoryStore(),
		ContractDataStore: contractdata.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Evaluator == nil {
		opts.Evaluator = expression.NewComposite()
	}
	logger := logging.OrNoOp(opts.Logger)

	v := contract.New(func(o *contract.Options) {
		o.Evaluator = opts.Evaluator
		o.ScriptPolicy = opts.ScriptPolicy
		o.RulePolicy = opts.RulePolicy
		o.Logger = logger
	})

	e := engine.New(func(o *engine.Options) {
		o.Config = opts.EngineConfig
		o.Evaluator = opts.Evaluator
		o.VariableStore = opts.VariableStore
		o.TransientStore = opts.TransientStore
		o.DocumentStore = opts.DocumentStore
		o.BusinessData = opts.BusinessData
		o.ExternalStore = opts.ExternalStore
		o.Callbacks = opts.Callbacks
		o.TracerProvider = opts.TracerProvider
		o.Logger = logger
	})

	return &Runtime{opts: opts, validator: v, engine: e, logger: logger}
}

// Engine exposes the underlying engine, for registering custom handlers
// and strategies.
func (r *Runtime) Engine() *engine.Engine { return r.engine }

// Validate checks inputs against contract without side effects.
func (r *Runtime) Validate(ctx context.Context, definitionID int64, c *core.ContractDefinition, inputs map[string]any) error {
	return r.validator.Validate(ctx, definitionID, c, inputs)
}

// Submit validates the submission, archives the inputs when enabled and
// executes the mapped and declared operations as one batch. Nothing is
// archived or executed when validation fails.
func (r *Runtime) Submit(ctx context.Context, s *Submission) (*engine.Result, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil submission", core.ErrInvalidDefinition)
	}
	if err := r.validator.Validate(ctx, s.DefinitionID, s.Contract, s.Inputs); err != nil {
		r.logger.Debug("runtime.submission.rejected", "container_id", s.Container.ID, "error", err)
		return nil, err
	}

	mapped, err := operation.FromContractInputs(s.Contract, s.Inputs, s.Mappings)
	if err != nil {
		return nil, err
	}

	if r.opts.KeepContractData && len(s.Inputs) > 0 {
		if err := r.opts.ContractDataStore.Save(ctx, s.Container, s.Inputs); err != nil {
			return nil, fmt.Errorf("archive contract data: %w", err)
		}
	}

	ops := make([]*core.Operation, 0, len(mapped)+len(s.Operations))
	ops = append(ops, mapped...)
	ops = append(ops, s.Operations...)

	res, err := r.Execute(ctx, s.Container, s.DefinitionID, submissionScope(s), ops)
	if err != nil {
		return nil, err
	}
	r.logger.Info("runtime.submission.completed",
		"container_id", s.Container.ID,
		"batch_id", res.BatchID,
		"operations", len(ops),
		"writes", res.Writes,
	)
	return res, nil
}

// submissionScope is the validated inputs overlaid by the caller's
// variables. NewExecutionContext copies both.
func submissionScope(s *Submission) map[string]any {
	scope := make(map[string]any, len(s.Inputs)+len(s.Variables))
	maps.Copy(scope, s.Inputs)
	maps.Copy(scope, s.Variables)
	return scope
}

// Execute runs ops against container c with an optional initial working set.
func (r *Runtime) Execute(ctx context.Context, c core.Container, definitionID int64, variables map[string]any, ops []*core.Operation) (*engine.Result, error) {
	ec := operation.NewExecutionContext(c, definitionID, variables)
	return r.engine.Execute(ctx, ec, ops)
}

// ContractData returns the archived value of input name for container c.
func (r *Runtime) ContractData(ctx context.Context, c core.Container, name string) (any, error) {
	if !r.opts.KeepContractData {
		return nil, ErrContractDataDisabled
	}
	rec, err := r.opts.ContractDataStore.Get(ctx, c, name)
	if err != nil {
		return nil, err
	}
	return rec.Value, nil
}

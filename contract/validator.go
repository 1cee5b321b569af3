package contract

import (
	"context"
	"time"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/expression"
	"github.com/hupe1980/bpmcore/logging"
)

// Options configures a Validator.
type Options struct {
	// Evaluator runs constraint expressions. Defaults to expression.NewComposite().
	Evaluator expression.Evaluator

	// ScriptPolicy applies to script constraints. Defaults to PolicyStrict.
	ScriptPolicy expression.Policy

	// RulePolicy applies to legacy JSON-logic rule constraints. Defaults to PolicyLenient.
	RulePolicy expression.Policy

	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Validator runs structure validation and, when it passes, constraint validation.
type Validator struct {
	structure   *StructureValidator
	constraints *ConstraintValidator
	logger      logging.Logger
}

// New creates a Validator with optional overrides.
func New(optFns ...func(o *Options)) *Validator {
	opts := Options{
		ScriptPolicy: expression.PolicyStrict,
		RulePolicy:   expression.PolicyLenient,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Evaluator == nil {
		opts.Evaluator = expression.NewComposite()
	}
	logger := logging.OrNoOp(opts.Logger)
	return &Validator{
		structure:   NewStructureValidator(logger),
		constraints: NewConstraintValidator(opts.Evaluator, opts.ScriptPolicy, opts.RulePolicy, logger),
		logger:      logger,
	}
}

// Validate returns nil, a *StructureError, a *ViolationError, or an
// evaluator failure.
func (v *Validator) Validate(ctx context.Context, definitionID int64, contract *core.ContractDefinition, inputs map[string]any) error {
	start := time.Now()
	report := v.structure.Validate(contract, inputs)
	v.record("structure", report.Len(), time.Since(start))
	if err := report.Err(); err != nil {
		return err
	}

	start = time.Now()
	err := v.constraints.Validate(ctx, definitionID, contract, inputs)
	v.record("constraints", len(Problems(err)), time.Since(start))
	return err
}

func (v *Validator) record(kind string, problems int, dur time.Duration) {
	if rl, ok := v.logger.(interface {
		LogValidation(kind string, problems int, dur time.Duration)
	}); ok {
		rl.LogValidation(kind, problems, dur)
		return
	}
	v.logger.Debug("contract.validation.done", "validation", kind, "problems", problems, "duration", dur)
}

package contract

import (
	"context"
	"fmt"
	"maps"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/expression"
	"github.com/hupe1980/bpmcore/internal/util"
	"github.com/hupe1980/bpmcore/logging"
)

// DefinitionIDKey is the binding injected into every constraint scope.
const DefinitionIDKey = "definitionId"

// ConstraintValidator evaluates a contract's constraints in declaration
// order. A false result is collected; an evaluator failure is returned at
// once, unless the constraint's dialect runs under PolicyLenient.
type ConstraintValidator struct {
	evaluator expression.Evaluator
	policies  map[core.ExpressionKind]expression.Policy
	helper    VariableHelper
	logger    logging.Logger
}

// NewConstraintValidator creates a ConstraintValidator. Scripts run under
// scriptPolicy and legacy rules under rulePolicy.
func NewConstraintValidator(ev expression.Evaluator, scriptPolicy, rulePolicy expression.Policy, logger logging.Logger) *ConstraintValidator {
	return &ConstraintValidator{
		evaluator: ev,
		policies: map[core.ExpressionKind]expression.Policy{
			core.KindScript: scriptPolicy,
			core.KindRule:   rulePolicy,
		},
		logger: logging.OrNoOp(logger),
	}
}

// Validate returns a *ViolationError listing the explanation of every
// failed constraint, or the first evaluator failure.
func (v *ConstraintValidator) Validate(ctx context.Context, definitionID int64, contract *core.ContractDefinition, variables map[string]any) error {
	if contract == nil {
		return nil
	}
	var explanations []string
	for _, ct := range contract.Constraints {
		if ct == nil {
			continue
		}
		kind := ct.Kind
		if kind == "" {
			kind = core.KindScript
		}
		expr := &core.Expression{Name: ct.Name, Kind: kind, Content: ct.Expression}

		scopes := v.helper.BuildScopes(ct, variables)
		if len(scopes) == 0 {
			scopes = []map[string]any{nil}
		}
		for _, scope := range scopes {
			bindings := make(map[string]any, len(variables)+len(scope)+1)
			maps.Copy(bindings, variables)
			maps.Copy(bindings, scope)
			bindings[DefinitionIDKey] = definitionID

			ok, err := expression.Satisfied(ctx, v.evaluator, v.policies[kind], expr, bindings)
			if err != nil {
				return fmt.Errorf("constraint [%s]: %w", ct.Name, err)
			}
			if !ok {
				v.logger.Debug("contract.constraint.failed", "constraint", ct.Name)
				explanations = append(explanations, v.explain(ct, bindings))
				break
			}
		}
	}
	if len(explanations) > 0 {
		return &ViolationError{Explanations: explanations}
	}
	return nil
}

func (v *ConstraintValidator) explain(ct *core.ConstraintDefinition, bindings map[string]any) string {
	msg, err := util.RenderTemplate(ct.Explanation, bindings)
	if err != nil {
		v.logger.Warn("contract.explanation.render_failed", "constraint", ct.Name, "error", err)
		return ct.Explanation
	}
	return msg
}

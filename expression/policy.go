package expression

import (
	"context"
	"fmt"

	"github.com/hupe1980/bpmcore/core"
)

// Policy decides how evaluator failures affect a boolean check.
type Policy int

const (
	// PolicyStrict returns evaluator failures (and non-boolean results) as errors.
	PolicyStrict Policy = iota
	// PolicyLenient treats any evaluator failure as "not satisfied".
	PolicyLenient
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "strict":
		return PolicyStrict, nil
	case "lenient":
		return PolicyLenient, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown evaluation policy %q", s)
	}
}

// Satisfied evaluates expr as a boolean condition under policy.
func Satisfied(ctx context.Context, ev Evaluator, policy Policy, expr *core.Expression, scope map[string]any) (bool, error) {
	v, err := ev.Evaluate(ctx, expr, scope)
	if err == nil {
		b, ok := v.(bool)
		if ok {
			return b, nil
		}
		err = evalErr(expr.Content, fmt.Errorf("condition returned %T, expected bool", v))
	}
	if policy == PolicyLenient {
		return false, nil
	}
	return false, err
}

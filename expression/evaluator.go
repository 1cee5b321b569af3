package expression

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/bpmcore/core"
)

// Evaluator computes the value of an expression against a variable scope.
type Evaluator interface {
	Evaluate(ctx context.Context, expr *core.Expression, scope map[string]any) (any, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, expr *core.Expression, scope map[string]any) (any, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, expr *core.Expression, scope map[string]any) (any, error) {
	return f(ctx, expr, scope)
}

// Composite dispatches on the expression kind. Structural kinds are
// resolved directly; dialect kinds go to the registered evaluators.
// It is safe for concurrent use.
type Composite struct {
	mu       sync.RWMutex
	dialects map[core.ExpressionKind]Evaluator
}

// CompositeOptions configures a Composite.
type CompositeOptions struct {
	Script Evaluator
	Rule   Evaluator
}

// NewComposite returns a Composite with the yaegi script and JSON-logic
// rule evaluators unless overridden.
func NewComposite(optFns ...func(o *CompositeOptions)) *Composite {
	opts := CompositeOptions{
		Script: NewScriptEvaluator(),
		Rule:   NewRuleEvaluator(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Composite{dialects: map[core.ExpressionKind]Evaluator{
		core.KindScript: opts.Script,
		core.KindRule:   opts.Rule,
	}}
}

// Register installs (or replaces) the evaluator for a dialect kind.
func (c *Composite) Register(kind core.ExpressionKind, ev Evaluator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialects[kind] = ev
}

func (c *Composite) dialect(kind core.ExpressionKind) (Evaluator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev, ok := c.dialects[kind]
	return ev, ok
}

// Evaluate implements Evaluator.
func (c *Composite) Evaluate(ctx context.Context, expr *core.Expression, scope map[string]any) (any, error) {
	if expr == nil {
		return nil, nil
	}
	switch expr.Kind {
	case core.KindConstant:
		return expr.Value, nil
	case core.KindVariable, core.KindBusinessDataRef:
		v, ok := scope[expr.Content]
		if !ok {
			return nil, evalErr(expr.Content, fmt.Errorf("variable %q is not defined", expr.Content))
		}
		return v, nil
	case core.KindList:
		out := make([]any, 0, len(expr.Dependencies))
		for _, dep := range expr.Dependencies {
			v, err := c.Evaluate(ctx, dep, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case core.KindQuery:
		return c.query(ctx, expr, scope)
	}
	ev, ok := c.dialect(expr.Kind)
	if !ok || ev == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, expr.Kind)
	}
	return ev.Evaluate(ctx, expr, scope)
}

// query reads the gjson path expr.Content out of the value of the first
// dependency. A missing path yields nil.
func (c *Composite) query(ctx context.Context, expr *core.Expression, scope map[string]any) (any, error) {
	if len(expr.Dependencies) == 0 {
		return nil, evalErr(expr.Content, fmt.Errorf("query has no source expression"))
	}
	src, err := c.Evaluate(ctx, expr.Dependencies[0], scope)
	if err != nil {
		return nil, err
	}
	var res gjson.Result
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		res = gjson.Get(v, expr.Content)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, evalErr(expr.Content, err)
		}
		res = gjson.GetBytes(raw, expr.Content)
	}
	if !res.Exists() {
		return nil, nil
	}
	return res.Value(), nil
}

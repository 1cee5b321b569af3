package expression

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

// RuleEvaluator interprets JSON-logic documents such as
//
//	{"and": [{">=": [{"var": "age"}, 18]}, {"in": [{"var": "country"}, ["FR", "DE"]]}]}
//
// The rule is read from expr.Value when it holds a decoded document,
// otherwise Content is parsed as JSON. Unknown operators and arithmetic on
// non-numbers are evaluation errors; a missing variable resolves to nil.
type RuleEvaluator struct{}

// NewRuleEvaluator creates a rule evaluator.
func NewRuleEvaluator() *RuleEvaluator { return &RuleEvaluator{} }

// Evaluate implements Evaluator.
func (r *RuleEvaluator) Evaluate(_ context.Context, expr *core.Expression, scope map[string]any) (any, error) {
	node := expr.Value
	if node == nil {
		dec := json.NewDecoder(strings.NewReader(expr.Content))
		dec.UseNumber()
		if err := dec.Decode(&node); err != nil {
			return nil, evalErr(expr.Content, fmt.Errorf("invalid rule document: %w", err))
		}
	}
	v, err := (&ruleRun{scope: scope}).resolve(node)
	if err != nil {
		return nil, evalErr(expr.Content, err)
	}
	return v, nil
}

type ruleRun struct {
	scope map[string]any
}

// resolve evaluates any JSON-logic node and returns its value.
func (r *ruleRun) resolve(node any) (any, error) {
	switch v := node.(type) {
	case map[string]any:
		if len(v) == 1 {
			for op, args := range v {
				return r.operator(op, args)
			}
		}
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			rv, err := r.resolve(elem)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *ruleRun) args(args any, min int) ([]any, error) {
	arr, ok := args.([]any)
	if !ok {
		arr = []any{args}
	}
	if len(arr) < min {
		return nil, fmt.Errorf("expected at least %d arguments, got %d", min, len(arr))
	}
	out := make([]any, len(arr))
	for i, a := range arr {
		v, err := r.resolve(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *ruleRun) operator(op string, raw any) (any, error) {
	switch op {
	case "var":
		a, err := r.args(raw, 1)
		if err != nil {
			return nil, err
		}
		path, _ := a[0].(string)
		v := r.lookup(path)
		if v == nil && len(a) > 1 {
			return a[1], nil
		}
		return v, nil
	case "==", "!=":
		a, err := r.args(raw, 2)
		if err != nil {
			return nil, err
		}
		eq := equal(a[0], a[1])
		if op == "!=" {
			return !eq, nil
		}
		return eq, nil
	case "<", "<=", ">", ">=":
		a, err := r.args(raw, 2)
		if err != nil {
			return nil, err
		}
		x, xok := util.ToFloat(a[0])
		y, yok := util.ToFloat(a[1])
		if !xok || !yok {
			return nil, fmt.Errorf("operator %s needs numbers, got %T and %T", op, a[0], a[1])
		}
		switch op {
		case "<":
			return x < y, nil
		case "<=":
			return x <= y, nil
		case ">":
			return x > y, nil
		default:
			return x >= y, nil
		}
	case "and", "or":
		arr, ok := raw.([]any)
		if !ok {
			arr = []any{raw}
		}
		var last any = op == "and"
		for _, node := range arr {
			v, err := r.resolve(node)
			if err != nil {
				return nil, err
			}
			last = v
			if truthy(v) != (op == "and") {
				return v, nil
			}
		}
		return last, nil
	case "!", "not":
		a, err := r.args(raw, 1)
		if err != nil {
			return nil, err
		}
		return !truthy(a[0]), nil
	case "!!":
		a, err := r.args(raw, 1)
		if err != nil {
			return nil, err
		}
		return truthy(a[0]), nil
	case "if":
		arr, ok := raw.([]any)
		if !ok || len(arr) == 0 {
			return nil, fmt.Errorf("if expects [cond, then, ...]")
		}
		for i := 0; i+1 < len(arr); i += 2 {
			c, err := r.resolve(arr[i])
			if err != nil {
				return nil, err
			}
			if truthy(c) {
				return r.resolve(arr[i+1])
			}
		}
		if len(arr)%2 == 1 {
			return r.resolve(arr[len(arr)-1])
		}
		return nil, nil
	case "+", "-", "*", "/":
		a, err := r.args(raw, 1)
		if err != nil {
			return nil, err
		}
		return arithmetic(op, a)
	case "in":
		a, err := r.args(raw, 2)
		if err != nil {
			return nil, err
		}
		if s, ok := a[1].(string); ok {
			sub, _ := a[0].(string)
			return strings.Contains(s, sub), nil
		}
		list, ok := util.AsList(a[1])
		if !ok {
			return nil, fmt.Errorf("in expects a list or string, got %T", a[1])
		}
		for _, e := range list {
			if equal(a[0], e) {
				return true, nil
			}
		}
		return false, nil
	case "cat":
		a, err := r.args(raw, 0)
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for _, v := range a {
			if v != nil {
				fmt.Fprint(&b, v)
			}
		}
		return b.String(), nil
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
}

// lookup retrieves a value using dot notation: "address.city".
func (r *ruleRun) lookup(path string) any {
	if path == "" {
		return r.scope
	}
	var cur any = r.scope
	for _, part := range strings.Split(path, ".") {
		m, ok := util.AsMap(cur)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func arithmetic(op string, a []any) (any, error) {
	nums := make([]float64, len(a))
	for i, v := range a {
		f, ok := util.ToFloat(v)
		if !ok {
			return nil, fmt.Errorf("operator %s needs numbers, got %T", op, v)
		}
		nums[i] = f
	}
	if len(nums) == 1 {
		if op == "-" {
			return -nums[0], nil
		}
		return nums[0], nil
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		switch op {
		case "+":
			acc += n
		case "-":
			acc -= n
		case "*":
			acc *= n
		case "/":
			if n == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			acc /= n
		}
	}
	return acc, nil
}

// equal compares with numeric coercion; nil equals only nil.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := util.ToFloat(a); ok && util.IsNumber(a) {
		if y, ok := util.ToFloat(b); ok && util.IsNumber(b) {
			return x == y
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// truthy follows JSON-logic: nil, false, 0, "" and empty collections are falsy.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := util.ToFloat(v); ok && util.IsNumber(v) {
		return f != 0
	}
	if l, ok := util.AsList(v); ok {
		return len(l) > 0
	}
	if m, ok := util.AsMap(v); ok {
		return len(m) > 0
	}
	return true
}

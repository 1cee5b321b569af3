package operation

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ScriptedMethodStrategy invokes the method named by the operation's
// Operator on the current value, passing the evaluated result.
//
// Dispatch order: the setter convention setFoo on business objects and
// maps, add/append on lists, then an exported Go method found by
// reflection. A method whose first result has the receiver's type
// replaces the value; otherwise the (mutated) receiver is kept.
type ScriptedMethodStrategy struct{}

// Kind implements ExecutorStrategy.
func (ScriptedMethodStrategy) Kind() core.OperatorKind { return core.OperatorScriptedMethod }

// PersistsOnNull implements ExecutorStrategy.
func (ScriptedMethodStrategy) PersistsOnNull() bool { return false }

// ComputeNewValue implements ExecutorStrategy. When shouldPersist is set
// the value handed back is detached from the working copy.
func (ScriptedMethodStrategy) ComputeNewValue(_ context.Context, op *core.Operation, current, result any, _ *ExecutionContext, shouldPersist bool) (any, error) {
	if op.Operator == "" {
		return nil, fmt.Errorf("%w: scripted method on %s has no method name", ErrInvalidValue, op.LeftOperand)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: cannot call %s on nil %s", ErrInvalidValue, op.Operator, op.LeftOperand)
	}
	out, err := invoke(current, op.Operator, result)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", op.LeftOperand, op.Operator, err)
	}
	if shouldPersist {
		out = detach(out)
	}
	return out, nil
}

func invoke(target any, method string, arg any) (any, error) {
	if attr, ok := setterAttribute(method); ok {
		switch v := target.(type) {
		case *core.BusinessObject:
			v.Set(attr, arg)
			return v, nil
		case map[string]any:
			v[attr] = arg
			return v, nil
		}
	}
	if method == "add" || method == "append" {
		if list, ok := util.AsList(target); ok {
			return append(list, arg), nil
		}
	}
	return callMethod(target, method, arg)
}

func callMethod(target any, method string, arg any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("method %q panicked: %v", method, r)
		}
	}()
	rv := reflect.ValueOf(target)
	m := rv.MethodByName(method)
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %T has no method %q", ErrInvalidValue, target, method)
	}
	args, err := methodArgs(m.Type(), arg)
	if err != nil {
		return nil, err
	}
	results := m.Call(args)
	if n := len(results); n > 0 && m.Type().Out(n-1) == errorType {
		if errV := results[n-1]; !errV.IsNil() {
			return nil, errV.Interface().(error)
		}
		results = results[:n-1]
	}
	if len(results) > 0 && results[0].Type() == rv.Type() {
		return results[0].Interface(), nil
	}
	return target, nil
}

func methodArgs(mt reflect.Type, arg any) ([]reflect.Value, error) {
	if mt.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic methods are not supported", ErrInvalidValue)
	}
	var raw []any
	switch mt.NumIn() {
	case 0:
	case 1:
		raw = []any{arg}
	default:
		list, ok := util.AsList(arg)
		if !ok || len(list) != mt.NumIn() {
			return nil, fmt.Errorf("%w: method takes %d arguments", ErrInvalidValue, mt.NumIn())
		}
		raw = list
	}
	args := make([]reflect.Value, len(raw))
	for i, a := range raw {
		want := mt.In(i)
		if a == nil {
			args[i] = reflect.Zero(want)
			continue
		}
		v := reflect.ValueOf(a)
		switch {
		case v.Type().AssignableTo(want):
		case v.Type().ConvertibleTo(want):
			v = v.Convert(want)
		default:
			return nil, fmt.Errorf("%w: argument %d: %T is not assignable to %s", ErrInvalidValue, i, a, want)
		}
		args[i] = v
	}
	return args, nil
}

// setterAttribute maps setFoo to foo.
func setterAttribute(method string) (string, bool) {
	name, ok := strings.CutPrefix(method, "set")
	if !ok || name == "" {
		return "", false
	}
	r := []rune(name)
	if !unicode.IsUpper(r[0]) {
		return "", false
	}
	r[0] = unicode.ToLower(r[0])
	return string(r), true
}

func detach(value any) any {
	switch v := value.(type) {
	case *core.BusinessObject:
		if v == nil {
			return v
		}
		obj := v.Clone()
		if attrs, ok := util.DeepCopy(v.Attributes).(map[string]any); ok {
			obj.Attributes = attrs
		}
		return obj
	case []*core.BusinessObject:
		out := make([]*core.BusinessObject, len(v))
		for i, o := range v {
			out[i], _ = detach(o).(*core.BusinessObject)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = detach(e)
		}
		return out
	default:
		return util.DeepCopy(value)
	}
}

package operation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/hupe1980/bpmcore/core"
)

// QueryUpdateStrategy writes the evaluated result at the path named by
// the operation's Operator. JSON strings are updated textually; any other
// value is round-tripped through JSON. Business objects keep their type
// and id and only have their attributes rewritten.
type QueryUpdateStrategy struct{}

// Kind implements ExecutorStrategy.
func (QueryUpdateStrategy) Kind() core.OperatorKind { return core.OperatorQueryUpdate }

// PersistsOnNull implements ExecutorStrategy.
func (QueryUpdateStrategy) PersistsOnNull() bool { return false }

// ComputeNewValue implements ExecutorStrategy.
func (QueryUpdateStrategy) ComputeNewValue(_ context.Context, op *core.Operation, current, result any, _ *ExecutionContext, _ bool) (any, error) {
	if op.Operator == "" {
		return nil, fmt.Errorf("%w: query update on %s has no path", ErrInvalidValue, op.LeftOperand)
	}
	switch v := current.(type) {
	case nil:
		return setJSON([]byte("{}"), op.Operator, result)
	case string:
		out, err := sjson.Set(v, op.Operator, result)
		if err != nil {
			return nil, fmt.Errorf("query update %q: %w", op.Operator, err)
		}
		return out, nil
	case *core.BusinessObject:
		doc := []byte("{}")
		if len(v.Attributes) > 0 {
			var err error
			if doc, err = json.Marshal(v.Attributes); err != nil {
				return nil, err
			}
		}
		attrs, err := setJSON(doc, op.Operator, result)
		if err != nil {
			return nil, err
		}
		obj := v.Clone()
		obj.Attributes, _ = attrs.(map[string]any)
		return obj, nil
	default:
		doc, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %T is not JSON encodable: %v", ErrInvalidValue, current, err)
		}
		return setJSON(doc, op.Operator, result)
	}
}

func setJSON(doc []byte, path string, value any) (any, error) {
	out, err := sjson.SetBytes(doc, path, value)
	if err != nil {
		return nil, fmt.Errorf("query update %q: %w", path, err)
	}
	var decoded any
	if err := json.Unmarshal(out, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

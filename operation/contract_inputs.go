package operation

import (
	"fmt"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

// InputMapping assigns a top-level contract input to a left operand.
// BusinessType names the object type created for BUSINESS_DATA targets.
type InputMapping struct {
	Input        string           `json:"input" yaml:"input"`
	Target       core.LeftOperand `json:"target" yaml:"target"`
	BusinessType string           `json:"businessType,omitempty" yaml:"businessType,omitempty"`
}

// FromContractInputs builds one assignment per mapping, in the contract's
// input declaration order, carrying the submitted input value as a
// constant. Mappings for undeclared inputs are an error; declared inputs
// that were not submitted are skipped.
func FromContractInputs(contract *core.ContractDefinition, inputs map[string]any, mappings []InputMapping) ([]*core.Operation, error) {
	byInput := make(map[string][]InputMapping, len(mappings))
	for _, m := range mappings {
		if contract == nil {
			return nil, fmt.Errorf("%w: input [%s] is not declared", core.ErrInvalidDefinition, m.Input)
		}
		if _, ok := contract.Input(m.Input); !ok {
			return nil, fmt.Errorf("%w: input [%s] is not declared", core.ErrInvalidDefinition, m.Input)
		}
		byInput[m.Input] = append(byInput[m.Input], m)
	}
	if contract == nil {
		return nil, nil
	}

	var ops []*core.Operation
	for _, def := range contract.Inputs {
		value, present := inputs[def.Name]
		if !present {
			continue
		}
		for _, m := range byInput[def.Name] {
			v := util.DeepCopy(value)
			if m.Target.Category == core.CategoryBusinessData {
				converted, err := toBusinessValue(m, v)
				if err != nil {
					return nil, err
				}
				v = converted
			}
			op := core.Assign(m.Target, core.Constant(v))
			op.RightOperand.Name = def.Name
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func toBusinessValue(m InputMapping, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if m.BusinessType == "" {
		return nil, fmt.Errorf("%w: mapping of input [%s] to %s needs a business type", core.ErrInvalidDefinition, m.Input, m.Target)
	}
	if attrs, ok := util.AsMap(value); ok {
		return core.NewBusinessObject(m.BusinessType, attrs), nil
	}
	list, ok := util.AsList(value)
	if !ok {
		return nil, fmt.Errorf("%w: input [%s] is not a complex value", ErrInvalidValue, m.Input)
	}
	out := make([]*core.BusinessObject, 0, len(list))
	for _, e := range list {
		attrs, ok := util.AsMap(e)
		if !ok {
			continue
		}
		out = append(out, core.NewBusinessObject(m.BusinessType, attrs))
	}
	return out, nil
}

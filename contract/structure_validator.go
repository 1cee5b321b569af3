package contract

import (
	"errors"
	"sort"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
	"github.com/hupe1980/bpmcore/logging"
)

// StructureValidator checks presence and assignability of declared inputs,
// recursing into complex inputs. It never stops at the first problem.
type StructureValidator struct {
	types  TypeValidator
	logger logging.Logger
}

// NewStructureValidator creates a StructureValidator. A nil logger discards output.
func NewStructureValidator(logger logging.Logger) *StructureValidator {
	return &StructureValidator{logger: logging.OrNoOp(logger)}
}

// Validate walks the whole value tree and returns every problem found.
func (v *StructureValidator) Validate(contract *core.ContractDefinition, values map[string]any) *ErrorReport {
	report := &ErrorReport{}
	if contract == nil {
		return report
	}
	v.validateLevel(contract.Inputs, values, report)
	return report
}

func (v *StructureValidator) validateLevel(defs []*core.InputDefinition, values map[string]any, report *ErrorReport) {
	declared := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		declared[def.Name] = struct{}{}
		value, present := values[def.Name]
		if !present {
			report.Addf("Expected input [%s] is missing", def.Name)
			continue
		}
		if value == nil {
			continue
		}
		if err := v.types.Validate(def, value); err != nil {
			var ive *InputValidationError
			if errors.As(err, &ive) {
				for _, msg := range ive.Messages {
					report.Add(msg)
				}
			} else {
				report.Add(err.Error())
			}
			continue
		}
		if def.IsComplex() {
			v.recurse(def, value, report)
		}
	}

	unexpected := make([]string, 0)
	for name := range values {
		if _, ok := declared[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)
	for _, name := range unexpected {
		v.logger.Debug("contract.input.unexpected", "input", name)
	}
}

func (v *StructureValidator) recurse(def *core.InputDefinition, value any, report *ErrorReport) {
	if !def.Multiple {
		m, _ := util.AsMap(value)
		v.validateLevel(def.Inputs, m, report)
		return
	}
	list, _ := util.AsList(value)
	for _, elem := range list {
		if elem == nil {
			continue
		}
		m, _ := util.AsMap(elem)
		v.validateLevel(def.Inputs, m, report)
	}
}

package contract

import (
	"fmt"
	"time"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

const (
	localDateLayout     = "2006-01-02"
	localDateTimeLayout = "2006-01-02T15:04:05"
)

// TypeValidator checks that a present value is assignable to its declared
// input. It does not recurse into complex children.
type TypeValidator struct{}

// Validate returns an *InputValidationError when value does not fit def.
//
// A multiple simple input reports every failing element, while a multiple
// complex input stops at the first element that is not map-shaped. Nil
// elements are accepted in both cases.
func (TypeValidator) Validate(def *core.InputDefinition, value any) error {
	if def.IsComplex() {
		return validateComplex(def, value)
	}
	return validateSimple(def, value)
}

func validateSimple(def *core.InputDefinition, value any) error {
	if !def.Multiple {
		if !Assignable(def.Type, value) {
			return &InputValidationError{Input: def.Name, Messages: []string{cannotAssign(value, def.TypeName())}}
		}
		return nil
	}
	list, ok := util.AsList(value)
	if !ok {
		return &InputValidationError{Input: def.Name, Messages: []string{cannotAssign(value, "multiple "+def.TypeName())}}
	}
	var messages []string
	for _, elem := range list {
		if elem == nil {
			continue
		}
		if !Assignable(def.Type, elem) {
			messages = append(messages, cannotAssign(elem, def.TypeName()))
		}
	}
	if len(messages) > 0 {
		return &InputValidationError{Input: def.Name, Messages: messages}
	}
	return nil
}

func validateComplex(def *core.InputDefinition, value any) error {
	if !def.Multiple {
		if _, ok := util.AsMap(value); !ok {
			return &InputValidationError{Input: def.Name, Messages: []string{cannotAssign(value, def.TypeName())}}
		}
		return nil
	}
	list, ok := util.AsList(value)
	if !ok {
		return &InputValidationError{Input: def.Name, Messages: []string{cannotAssign(value, "multiple "+def.TypeName())}}
	}
	for _, elem := range list {
		if elem == nil {
			continue
		}
		if _, ok := util.AsMap(elem); !ok {
			return &InputValidationError{Input: def.Name, Messages: []string{cannotAssign(elem, def.TypeName())}}
		}
	}
	return nil
}

func cannotAssign(value any, typ string) string {
	return fmt.Sprintf("%v cannot be assigned to %s", value, typ)
}

// Assignable reports whether value satisfies the predicate of t.
func Assignable(t core.InputType, value any) bool {
	switch t {
	case core.InputTypeText:
		_, ok := value.(string)
		return ok
	case core.InputTypeBoolean:
		_, ok := value.(bool)
		return ok
	case core.InputTypeInteger, core.InputTypeLong:
		return util.IsInteger(value)
	case core.InputTypeDecimal:
		return util.IsNumber(value)
	case core.InputTypeDate:
		return isTime(value, time.RFC3339)
	case core.InputTypeLocalDate:
		return isTime(value, localDateLayout)
	case core.InputTypeLocalDateTime:
		return isTime(value, localDateTimeLayout)
	case core.InputTypeOffsetDateTime:
		return isTime(value, time.RFC3339Nano)
	case core.InputTypeByteArray:
		_, ok := value.([]byte)
		return ok
	case core.InputTypeFile:
		return isFile(value)
	default:
		return false
	}
}

func isTime(value any, layout string) bool {
	switch v := value.(type) {
	case time.Time:
		return true
	case *time.Time:
		return v != nil
	case string:
		_, err := time.Parse(layout, v)
		return err == nil
	}
	return false
}

func isFile(value any) bool {
	switch v := value.(type) {
	case core.FileInput:
		return true
	case *core.FileInput:
		return v != nil
	}
	m, ok := util.AsMap(value)
	if !ok {
		return false
	}
	_, ok = m["filename"].(string)
	return ok
}

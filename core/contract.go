package core

import "fmt"

// InputType is the closed set of declared types a simple input may carry.
type InputType string

const (
	InputTypeText           InputType = "TEXT"
	InputTypeBoolean        InputType = "BOOLEAN"
	InputTypeInteger        InputType = "INTEGER"
	InputTypeLong           InputType = "LONG"
	InputTypeDecimal        InputType = "DECIMAL"
	InputTypeDate           InputType = "DATE"
	InputTypeLocalDate      InputType = "LOCALDATE"
	InputTypeLocalDateTime  InputType = "LOCALDATETIME"
	InputTypeOffsetDateTime InputType = "OFFSETDATETIME"
	InputTypeByteArray      InputType = "BYTE_ARRAY"
	InputTypeFile           InputType = "FILE"
)

// Valid reports whether t is one of the known input types.
func (t InputType) Valid() bool {
	switch t {
	case InputTypeText, InputTypeBoolean, InputTypeInteger, InputTypeLong,
		InputTypeDecimal, InputTypeDate, InputTypeLocalDate, InputTypeLocalDateTime,
		InputTypeOffsetDateTime, InputTypeByteArray, InputTypeFile:
		return true
	default:
		return false
	}
}

// InputDefinition is one declared contract input. It is either simple
// (Type set, no Inputs) or complex (Type empty, children in Inputs).
//
// Names are unique within one container level only.
type InputDefinition struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Type        InputType          `json:"type,omitempty" yaml:"type,omitempty"`
	Multiple    bool               `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Inputs      []*InputDefinition `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// SimpleInput declares a scalar input of the given type.
func SimpleInput(name string, t InputType, multiple bool) *InputDefinition {
	return &InputDefinition{Name: name, Type: t, Multiple: multiple}
}

// ComplexInput declares a structured input composed of children.
func ComplexInput(name string, multiple bool, children ...*InputDefinition) *InputDefinition {
	return &InputDefinition{Name: name, Multiple: multiple, Inputs: children}
}

// IsComplex reports whether the input is a complex (structured) input.
func (d *InputDefinition) IsComplex() bool { return d.Type == "" }

// TypeName returns the declared type for messages; complex inputs report COMPLEX.
func (d *InputDefinition) TypeName() string {
	if d.IsComplex() {
		return "COMPLEX"
	}
	return string(d.Type)
}

// Validate checks the definition tree for configuration mistakes: unknown
// types, children on simple inputs and duplicated names in one level.
func (d *InputDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: input without name", ErrInvalidDefinition)
	}
	if d.IsComplex() {
		return validateInputs(d.Inputs)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: input %q has unknown type %q", ErrInvalidDefinition, d.Name, d.Type)
	}
	if len(d.Inputs) > 0 {
		return fmt.Errorf("%w: simple input %q declares children", ErrInvalidDefinition, d.Name)
	}
	return nil
}

func validateInputs(inputs []*InputDefinition) error {
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in == nil {
			continue
		}
		if _, dup := seen[in.Name]; dup {
			return fmt.Errorf("%w: duplicate input %q", ErrInvalidDefinition, in.Name)
		}
		seen[in.Name] = struct{}{}
		if err := in.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ConstraintDefinition is a scripted business rule over validated inputs.
type ConstraintDefinition struct {
	Name        string   `json:"name" yaml:"name"`
	Expression  string   `json:"expression" yaml:"expression"`
	Explanation string   `json:"explanation" yaml:"explanation"`
	InputNames  []string `json:"inputNames,omitempty" yaml:"inputNames,omitempty"`
	// Kind selects the dialect the expression is written in. Empty means script.
	Kind ExpressionKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// ContractDefinition is the declared input schema of a task or process.
type ContractDefinition struct {
	Inputs      []*InputDefinition      `json:"inputs" yaml:"inputs"`
	Constraints []*ConstraintDefinition `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Validate checks the contract's own definition (not runtime values).
func (c *ContractDefinition) Validate() error {
	if c == nil {
		return nil
	}
	if err := validateInputs(c.Inputs); err != nil {
		return err
	}
	for _, ct := range c.Constraints {
		if ct == nil || ct.Expression == "" {
			return fmt.Errorf("%w: constraint without expression", ErrInvalidDefinition)
		}
	}
	return nil
}

// Input returns the top-level input with the given name.
func (c *ContractDefinition) Input(name string) (*InputDefinition, bool) {
	if c == nil {
		return nil, false
	}
	for _, in := range c.Inputs {
		if in != nil && in.Name == name {
			return in, true
		}
	}
	return nil, false
}

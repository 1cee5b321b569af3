package testutil

import "github.com/hupe1980/bpmcore/core"

// ContractBuilder helps construct contracts with fluent chaining for tests.
// Example:
//
//	c := NewContractBuilder().Simple("age", core.InputTypeInteger).
//		Complex("address", false, core.SimpleInput("street", core.InputTypeText, false)).Build()
type ContractBuilder struct {
	contract *core.ContractDefinition
}

// NewContractBuilder creates an empty contract builder.
func NewContractBuilder() *ContractBuilder {
	return &ContractBuilder{contract: &core.ContractDefinition{}}
}

// Simple declares a non-multiple simple input (chainable).
func (b *ContractBuilder) Simple(name string, t core.InputType) *ContractBuilder {
	b.contract.Inputs = append(b.contract.Inputs, core.SimpleInput(name, t, false))
	return b
}

// SimpleMultiple declares a multiple simple input (chainable).
func (b *ContractBuilder) SimpleMultiple(name string, t core.InputType) *ContractBuilder {
	b.contract.Inputs = append(b.contract.Inputs, core.SimpleInput(name, t, true))
	return b
}

// Complex declares a complex input with children (chainable).
func (b *ContractBuilder) Complex(name string, multiple bool, children ...*core.InputDefinition) *ContractBuilder {
	b.contract.Inputs = append(b.contract.Inputs, core.ComplexInput(name, multiple, children...))
	return b
}

// Constraint declares a script constraint (chainable).
func (b *ContractBuilder) Constraint(name, expr, explanation string, inputNames ...string) *ContractBuilder {
	b.contract.Constraints = append(b.contract.Constraints, &core.ConstraintDefinition{
		Name: name, Expression: expr, Explanation: explanation, InputNames: inputNames,
	})
	return b
}

// Rule declares a legacy JSON-logic constraint (chainable).
func (b *ContractBuilder) Rule(name, rule, explanation string, inputNames ...string) *ContractBuilder {
	b.contract.Constraints = append(b.contract.Constraints, &core.ConstraintDefinition{
		Name: name, Expression: rule, Explanation: explanation, InputNames: inputNames, Kind: core.KindRule,
	})
	return b
}

// Build returns the contract.
func (b *ContractBuilder) Build() *core.ContractDefinition { return b.contract }

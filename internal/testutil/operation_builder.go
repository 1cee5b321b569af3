package testutil

import "github.com/hupe1980/bpmcore/core"

// OperationsBuilder helps construct ordered operation batches for tests.
// Example:
//
//	ops := NewOperationsBuilder().Assign(core.CategoryData, "x", core.Constant(1)).
//		Delete(core.CategoryBusinessData, "invoice").Build()
type OperationsBuilder struct {
	ops []*core.Operation
}

// NewOperationsBuilder creates an empty batch builder.
func NewOperationsBuilder() *OperationsBuilder { return &OperationsBuilder{} }

// Assign appends an assignment (chainable).
func (b *OperationsBuilder) Assign(cat core.Category, name string, right *core.Expression) *OperationsBuilder {
	b.ops = append(b.ops, core.Assign(core.LeftOperand{Category: cat, Name: name}, right))
	return b
}

// Method appends a scripted method call (chainable).
func (b *OperationsBuilder) Method(cat core.Category, name, method string, right *core.Expression) *OperationsBuilder {
	b.ops = append(b.ops, &core.Operation{
		LeftOperand:  core.LeftOperand{Category: cat, Name: name},
		Kind:         core.OperatorScriptedMethod,
		Operator:     method,
		RightOperand: right,
	})
	return b
}

// Query appends a query update (chainable).
func (b *OperationsBuilder) Query(cat core.Category, name, path string, right *core.Expression) *OperationsBuilder {
	b.ops = append(b.ops, &core.Operation{
		LeftOperand:  core.LeftOperand{Category: cat, Name: name},
		Kind:         core.OperatorQueryUpdate,
		Operator:     path,
		RightOperand: right,
	})
	return b
}

// Delete appends a deletion (chainable).
func (b *OperationsBuilder) Delete(cat core.Category, name string) *OperationsBuilder {
	b.ops = append(b.ops, core.Delete(core.LeftOperand{Category: cat, Name: name}))
	return b
}

// Build returns the batch.
func (b *OperationsBuilder) Build() []*core.Operation { return b.ops }

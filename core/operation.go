package core

import "fmt"

// Category is the closed set of left operand categories.
type Category string

const (
	CategoryData          Category = "DATA"
	CategoryTransientData Category = "TRANSIENT_DATA"
	CategoryBusinessData  Category = "BUSINESS_DATA"
	CategoryExternalData  Category = "EXTERNAL_DATA"
	CategoryDocument      Category = "DOCUMENT"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryData,
	CategoryTransientData,
	CategoryBusinessData,
	CategoryExternalData,
	CategoryDocument,
}

// OperatorKind is the closed set of operator kinds.
type OperatorKind string

const (
	OperatorAssignment     OperatorKind = "ASSIGNMENT"
	OperatorScriptedMethod OperatorKind = "SCRIPTED_METHOD"
	OperatorQueryUpdate    OperatorKind = "QUERY_UPDATE"
	OperatorDeletion       OperatorKind = "DELETION"
)

// LeftOperand addresses the target of an operation. Identity is (Category, Name).
type LeftOperand struct {
	Category Category `json:"category" yaml:"category"`
	Name     string   `json:"name" yaml:"name"`
}

// String implements fmt.Stringer.
func (l LeftOperand) String() string { return fmt.Sprintf("%s[%s]", l.Category, l.Name) }

// Operation is one declarative instruction computing a new value for, or
// deleting, a left operand. Order within a batch is significant.
type Operation struct {
	LeftOperand LeftOperand  `json:"leftOperand" yaml:"leftOperand"`
	Kind        OperatorKind `json:"kind" yaml:"kind"`
	// Operator is the method name for OperatorScriptedMethod and the path
	// for OperatorQueryUpdate.
	Operator     string      `json:"operator,omitempty" yaml:"operator,omitempty"`
	RightOperand *Expression `json:"rightOperand,omitempty" yaml:"rightOperand,omitempty"`
}

// String implements fmt.Stringer.
func (o *Operation) String() string {
	if o.Operator != "" {
		return fmt.Sprintf("%s %s(%s)", o.Kind, o.LeftOperand, o.Operator)
	}
	return fmt.Sprintf("%s %s", o.Kind, o.LeftOperand)
}

// Assign builds an assignment operation.
func Assign(lo LeftOperand, right *Expression) *Operation {
	return &Operation{LeftOperand: lo, Kind: OperatorAssignment, RightOperand: right}
}

// Delete builds a deletion operation.
func Delete(lo LeftOperand) *Operation {
	return &Operation{LeftOperand: lo, Kind: OperatorDeletion}
}

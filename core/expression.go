package core

// ExpressionKind selects how an expression is evaluated.
type ExpressionKind string

const (
	// KindConstant yields Value as is.
	KindConstant ExpressionKind = "CONSTANT"
	// KindVariable looks Content up in the evaluation scope.
	KindVariable ExpressionKind = "VARIABLE"
	// KindScript interprets Content as a Go expression.
	KindScript ExpressionKind = "SCRIPT"
	// KindRule interprets Content as a JSON-logic rule document.
	KindRule ExpressionKind = "RULE"
	// KindQuery reads the gjson path Content out of the dependency's value.
	KindQuery ExpressionKind = "QUERY"
	// KindBusinessDataRef looks Content up in the scope and marks a
	// structural dependency on the business data of that name.
	KindBusinessDataRef ExpressionKind = "BUSINESS_DATA_REF"
	// KindList evaluates every dependency and returns the results as a slice.
	KindList ExpressionKind = "LIST"
)

// Expression is the right-hand side of an operation or the body of a
// constraint. Dependencies nest sub-expressions whose values some kinds
// consume (KindQuery, KindList).
type Expression struct {
	Name         string         `json:"name,omitempty" yaml:"name,omitempty"`
	Kind         ExpressionKind `json:"kind" yaml:"kind"`
	Content      string         `json:"content,omitempty" yaml:"content,omitempty"`
	Value        any            `json:"value,omitempty" yaml:"value,omitempty"`
	ReturnType   string         `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	Dependencies []*Expression  `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// Constant builds a constant expression.
func Constant(v any) *Expression { return &Expression{Kind: KindConstant, Value: v} }

// Variable builds a scope lookup expression.
func Variable(name string) *Expression { return &Expression{Kind: KindVariable, Content: name} }

// Script builds a script expression.
func Script(content string) *Expression { return &Expression{Kind: KindScript, Content: content} }

// BusinessDataRefExpr builds a reference to business data already in scope.
func BusinessDataRefExpr(name string) *Expression {
	return &Expression{Kind: KindBusinessDataRef, Content: name}
}

// References reports whether the expression tree rooted at e reads the
// variable or business data called name.
func (e *Expression) References(name string) bool {
	if e == nil {
		return false
	}
	if (e.Kind == KindBusinessDataRef || e.Kind == KindVariable) && e.Content == name {
		return true
	}
	for _, dep := range e.Dependencies {
		if dep.References(name) {
			return true
		}
	}
	return false
}

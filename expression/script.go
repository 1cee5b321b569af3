package expression

import (
	"context"
	"fmt"
	"go/token"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/bpmcore/core"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// DefaultScriptImports are the stdlib packages a script may use unqualified
// by an import statement of its own.
var DefaultScriptImports = []string{"fmt", "math", "strconv", "strings", "time"}

// ScriptEvaluator interprets Go source with yaegi. The content is either a
// single expression ("age >= 18") or a function body containing return
// statements. Every scope entry whose name is a valid identifier is bound
// as a local variable typed after its runtime value.
type ScriptEvaluator struct {
	imports []string
}

// ScriptOptions configures a ScriptEvaluator.
type ScriptOptions struct {
	Imports []string
}

// NewScriptEvaluator creates a script evaluator.
func NewScriptEvaluator(optFns ...func(o *ScriptOptions)) *ScriptEvaluator {
	opts := ScriptOptions{Imports: DefaultScriptImports}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ScriptEvaluator{imports: opts.Imports}
}

// Evaluate implements Evaluator.
func (s *ScriptEvaluator) Evaluate(ctx context.Context, expr *core.Expression, scope map[string]any) (result any, err error) {
	src := s.program(expr.Content, scope)

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.EvalWithContext(ctx, src); err != nil {
		return nil, evalErr(expr.Content, err)
	}
	v, err := i.Eval("main.evaluate")
	if err != nil {
		return nil, evalErr(expr.Content, err)
	}
	fn, ok := v.Interface().(func(map[string]interface{}) interface{})
	if !ok {
		return nil, evalErr(expr.Content, fmt.Errorf("unexpected entry point type %T", v.Interface()))
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, evalErr(expr.Content, fmt.Errorf("script panicked: %v", r))
		}
	}()
	return fn(scope), nil
}

// program renders the yaegi source for content bound to scope.
func (s *ScriptEvaluator) program(content string, scope map[string]any) string {
	var b strings.Builder
	b.WriteString("package main\n\n")
	for _, imp := range s.imports {
		if _, ok := importAnchors[imp]; ok {
			fmt.Fprintf(&b, "import %q\n", imp)
		}
	}
	b.WriteString("\n")
	for _, imp := range s.imports {
		if ref, ok := importAnchors[imp]; ok {
			fmt.Fprintf(&b, "var _ = %s\n", ref)
		}
	}
	b.WriteString("\nfunc evaluate(vars map[string]interface{}) interface{} {\n")

	names := make([]string, 0, len(scope))
	for name := range scope {
		if s.bindable(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if typ := s.typeName(scope[name]); typ != "" {
			fmt.Fprintf(&b, "\t%s := vars[%q].(%s)\n", name, name, typ)
		} else {
			fmt.Fprintf(&b, "\t%s := vars[%q]\n", name, name)
		}
		fmt.Fprintf(&b, "\t_ = %s\n", name)
	}

	body := strings.TrimSpace(content)
	if returnStmt.MatchString(body) {
		b.WriteString(body)
		b.WriteString("\n}\n")
	} else {
		fmt.Fprintf(&b, "\treturn (%s)\n}\n", body)
	}
	return b.String()
}

var returnStmt = regexp.MustCompile(`\breturn\b`)

// importAnchors keeps an otherwise unused import referenced. Imports
// outside this set are ignored.
var importAnchors = map[string]string{
	"bytes":   "bytes.Equal",
	"errors":  "errors.New",
	"fmt":     "fmt.Sprint",
	"math":    "math.Abs",
	"regexp":  "regexp.MatchString",
	"sort":    "sort.Strings",
	"strconv": "strconv.Itoa",
	"strings": "strings.ToUpper",
	"time":    "time.Now",
	"unicode": "unicode.IsUpper",
}

var timeType = reflect.TypeOf(time.Time{})

// typeName returns the Go type a scope value can be asserted to inside the
// script, or "" when it must stay an interface{}.
func (s *ScriptEvaluator) typeName(v any) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	if t == timeType {
		if s.imported("time") {
			return "time.Time"
		}
		return ""
	}
	if !builtinType(t) {
		return ""
	}
	return t.String()
}

// builtinType reports whether t is spelled only with predeclared types.
func builtinType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Pointer:
		return builtinType(t.Elem())
	case reflect.Map:
		return builtinType(t.Key()) && builtinType(t.Elem())
	case reflect.Interface:
		return t.NumMethod() == 0 && t.PkgPath() == ""
	case reflect.Struct, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	default:
		return t.PkgPath() == "" && t.Name() != ""
	}
}

func (s *ScriptEvaluator) bindable(name string) bool {
	return token.IsIdentifier(name) && name != "vars" && name != "_" && !s.imported(name)
}

func (s *ScriptEvaluator) imported(name string) bool {
	if _, ok := importAnchors[name]; !ok {
		return false
	}
	for _, imp := range s.imports {
		if imp == name {
			return true
		}
	}
	return false
}

package contract

import (
	"sort"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

// VariableHelper resolves the scopes a constraint is evaluated in when it
// references inputs nested inside (possibly multiple) complex inputs.
type VariableHelper struct{}

// BuildScopes returns one single-entry scope per occurrence of each name the
// constraint references. A name present at the top level yields exactly one
// scope; otherwise every nested map and list element is searched and each
// match yields its own scope.
func (VariableHelper) BuildScopes(constraint *core.ConstraintDefinition, variables map[string]any) []map[string]any {
	var scopes []map[string]any
	for _, name := range constraint.InputNames {
		if v, ok := variables[name]; ok {
			scopes = append(scopes, map[string]any{name: v})
			continue
		}
		for _, key := range sortedKeys(variables) {
			collect(name, variables[key], &scopes)
		}
	}
	return scopes
}

func collect(name string, value any, out *[]map[string]any) {
	if m, ok := util.AsMap(value); ok {
		if v, found := m[name]; found {
			*out = append(*out, map[string]any{name: v})
		}
		for _, key := range sortedKeys(m) {
			if key != name {
				collect(name, m[key], out)
			}
		}
		return
	}
	if list, ok := util.AsList(value); ok {
		for _, elem := range list {
			collect(name, elem, out)
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

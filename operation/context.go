package operation

import (
	"maps"

	"github.com/hupe1980/bpmcore/core"
)

// Bindings injected into every expression scope unless the working set
// already holds a value under the same name.
const (
	ContainerIDKey   = "containerId"
	ContainerTypeKey = "containerType"
	DefinitionIDKey  = "definitionId"
)

// ExecutionContext is the working set of one batch. It is owned by a single
// invocation and is not safe for concurrent use.
type ExecutionContext struct {
	container    core.Container
	definitionID int64
	values       map[string]any
}

// NewExecutionContext creates a context seeded with the caller's values.
// The initial values are deep-copied, so a batch never mutates the
// caller's maps or business objects.
func NewExecutionContext(c core.Container, definitionID int64, initial map[string]any) *ExecutionContext {
	values := make(map[string]any, len(initial))
	for name, v := range initial {
		values[name] = detach(v)
	}
	return &ExecutionContext{container: c, definitionID: definitionID, values: values}
}

// Container returns the instance the batch runs against.
func (ec *ExecutionContext) Container() core.Container { return ec.container }

// DefinitionID returns the process definition id.
func (ec *ExecutionContext) DefinitionID() int64 { return ec.definitionID }

// Get returns the working value of name.
func (ec *ExecutionContext) Get(name string) (any, bool) {
	v, ok := ec.values[name]
	return v, ok
}

// Has reports whether name is present in the working set.
func (ec *ExecutionContext) Has(name string) bool {
	_, ok := ec.values[name]
	return ok
}

// Set writes the working value of name.
func (ec *ExecutionContext) Set(name string, value any) { ec.values[name] = value }

// Seed adds loaded values for names not yet present and returns how many
// were added. Existing entries are never replaced.
func (ec *ExecutionContext) Seed(values map[string]any) int {
	added := 0
	for name, v := range values {
		if _, ok := ec.values[name]; ok {
			continue
		}
		ec.values[name] = v
		added++
	}
	return added
}

// Scope returns the expression scope: a copy of the working set plus the
// container and definition bindings.
func (ec *ExecutionContext) Scope() map[string]any {
	scope := make(map[string]any, len(ec.values)+3)
	maps.Copy(scope, ec.values)
	for k, v := range map[string]any{
		ContainerIDKey:   ec.container.ID,
		ContainerTypeKey: string(ec.container.Type),
		DefinitionIDKey:  ec.definitionID,
	} {
		if _, ok := scope[k]; !ok {
			scope[k] = v
		}
	}
	return scope
}

// Values returns a shallow copy of the working set.
func (ec *ExecutionContext) Values() map[string]any { return maps.Clone(ec.values) }

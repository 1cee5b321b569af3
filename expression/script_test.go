package expression

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/bpmcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptEvaluator_Expression(t *testing.T) {
	ev := NewScriptEvaluator()
	scope := map[string]any{"age": 30, "name": "ada", "tags": []any{"a", "b"}}

	got, err := ev.Evaluate(context.Background(), core.Script("age >= 18 && strings.ToUpper(name) == \"ADA\""), scope)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	got, err = ev.Evaluate(context.Background(), core.Script("len(tags)"), scope)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestScriptEvaluator_FunctionBody(t *testing.T) {
	ev := NewScriptEvaluator()
	src := `
	total := 0.0
	for _, p := range prices {
		total += p.(float64)
	}
	return total`
	got, err := ev.Evaluate(context.Background(), core.Script(src), map[string]any{"prices": []any{1.5, 2.5}})
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)
}

func TestScriptEvaluator_TimeAndUntypedValues(t *testing.T) {
	ev := NewScriptEvaluator()
	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	scope := map[string]any{
		"due":      due,
		"customer": core.NewBusinessObject("Customer", nil),
		"nothing":  nil,
		"bad-name": 1,
	}
	got, err := ev.Evaluate(context.Background(), core.Script("due.Year() == 2030 && customer != nil && nothing == nil"), scope)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestScriptEvaluator_Failures(t *testing.T) {
	ev := NewScriptEvaluator()

	_, err := ev.Evaluate(context.Background(), core.Script("undefinedVar > 1"), nil)
	assert.ErrorIs(t, err, ErrEvaluation)

	_, err = ev.Evaluate(context.Background(), core.Script(`return items[5]`), map[string]any{"items": []any{}})
	assert.ErrorIs(t, err, ErrEvaluation)
}

func TestScriptEvaluator_Program(t *testing.T) {
	ev := NewScriptEvaluator(func(o *ScriptOptions) { o.Imports = []string{"strings"} })
	src := ev.program("x > 1", map[string]any{"x": 2, "when": time.Now()})
	assert.True(t, strings.Contains(src, `x := vars["x"].(int)`))
	// time is not imported, so the value stays untyped
	assert.True(t, strings.Contains(src, `when := vars["when"]`+"\n"))
	assert.True(t, strings.Contains(src, "return (x > 1)"))
}

func TestScriptEvaluator_ImportsOutsideAnchorsAreIgnored(t *testing.T) {
	ev := NewScriptEvaluator(func(o *ScriptOptions) { o.Imports = []string{"sort", "os"} })
	src := ev.program("true", map[string]any{"strings": "bound", "sort": "shadow"})

	assert.Contains(t, src, `import "sort"`)
	assert.NotContains(t, src, `import "os"`)
	assert.Contains(t, src, `strings := vars["strings"].(string)`, "strings is not imported and may be bound")
	assert.NotContains(t, src, `sort := vars`)

	got, err := ev.Evaluate(context.Background(), core.Script(`return sort.StringsAreSorted([]string{"a", "b"})`), nil)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

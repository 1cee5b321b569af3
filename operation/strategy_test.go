package operation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bpmcore/core"
)

type counter struct {
	N int
}

func (c *counter) Add(n int) { c.N += n }

func (c *counter) Fail(string) error { return errors.New("refused") }

type money struct {
	Cents int64
}

func (m money) Plus(cents int64) money { return money{Cents: m.Cents + cents} }

func methodOp(name, method string) *core.Operation {
	return &core.Operation{
		LeftOperand: core.LeftOperand{Category: core.CategoryData, Name: name},
		Kind:        core.OperatorScriptedMethod,
		Operator:    method,
	}
}

func queryOp(name, path string) *core.Operation {
	return &core.Operation{
		LeftOperand: core.LeftOperand{Category: core.CategoryData, Name: name},
		Kind:        core.OperatorQueryUpdate,
		Operator:    path,
	}
}

func TestStrategyRegistry(t *testing.T) {
	r := DefaultStrategies()
	for _, kind := range []core.OperatorKind{core.OperatorAssignment, core.OperatorScriptedMethod, core.OperatorQueryUpdate, core.OperatorDeletion} {
		s, err := r.Get(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, s.Kind())
	}
	_, err := r.Get("MERGE")
	assert.ErrorIs(t, err, core.ErrUnknownOperator)
}

func TestPersistsOnNull(t *testing.T) {
	assert.True(t, AssignmentStrategy{}.PersistsOnNull())
	assert.True(t, DeletionStrategy{}.PersistsOnNull())
	assert.False(t, ScriptedMethodStrategy{}.PersistsOnNull())
	assert.False(t, QueryUpdateStrategy{}.PersistsOnNull())
}

func TestAssignmentAndDeletion(t *testing.T) {
	ctx := context.Background()
	v, err := AssignmentStrategy{}.ComputeNewValue(ctx, nil, "old", "new", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	v, err = DeletionStrategy{}.ComputeNewValue(ctx, nil, "old", "ignored", nil, true)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestScriptedMethod_Setters(t *testing.T) {
	ctx := context.Background()
	s := ScriptedMethodStrategy{}

	obj := core.NewBusinessObject("Invoice", nil)
	v, err := s.ComputeNewValue(ctx, methodOp("invoice", "setTotal"), obj, 42, nil, false)
	require.NoError(t, err)
	assert.Same(t, obj, v)
	assert.Equal(t, 42, obj.Get("total"))

	m := map[string]any{"a": 1}
	v, err = s.ComputeNewValue(ctx, methodOp("m", "setB"), m, 2, nil, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, v)
}

func TestScriptedMethod_Append(t *testing.T) {
	v, err := ScriptedMethodStrategy{}.ComputeNewValue(context.Background(), methodOp("tags", "add"), []string{"a"}, "b", nil, false)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)
}

func TestScriptedMethod_Reflection(t *testing.T) {
	ctx := context.Background()
	s := ScriptedMethodStrategy{}

	c := &counter{N: 1}
	v, err := s.ComputeNewValue(ctx, methodOp("c", "Add"), c, 2.0, nil, false)
	require.NoError(t, err)
	assert.Same(t, c, v)
	assert.Equal(t, 3, c.N)

	v, err = s.ComputeNewValue(ctx, methodOp("m", "Plus"), money{Cents: 100}, 50, nil, false)
	require.NoError(t, err)
	assert.Equal(t, money{Cents: 150}, v)

	_, err = s.ComputeNewValue(ctx, methodOp("c", "Fail"), c, "x", nil, false)
	assert.ErrorContains(t, err, "refused")

	_, err = s.ComputeNewValue(ctx, methodOp("c", "Missing"), c, nil, nil, false)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.ComputeNewValue(ctx, methodOp("c", "Add"), c, "two", nil, false)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = s.ComputeNewValue(ctx, methodOp("c", "Add"), nil, 1, nil, false)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestScriptedMethod_DetachesWhenPersisting(t *testing.T) {
	obj := core.NewBusinessObject("Invoice", map[string]any{"lines": []any{"a"}})
	v, err := ScriptedMethodStrategy{}.ComputeNewValue(context.Background(), methodOp("invoice", "setTotal"), obj, 1, nil, true)
	require.NoError(t, err)

	detached := v.(*core.BusinessObject)
	assert.NotSame(t, obj, detached)
	obj.Attributes["lines"].([]any)[0] = "changed"
	assert.Equal(t, []any{"a"}, detached.Get("lines"))
	assert.Equal(t, 1, detached.Get("total"))
}

func TestQueryUpdate(t *testing.T) {
	ctx := context.Background()
	s := QueryUpdateStrategy{}

	v, err := s.ComputeNewValue(ctx, queryOp("doc", "customer.name"), nil, "Ada", nil, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"customer": map[string]any{"name": "Ada"}}, v)

	v, err = s.ComputeNewValue(ctx, queryOp("doc", "items.1"), `{"items":[1,2]}`, 5, nil, false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[1,5]}`, v.(string))

	v, err = s.ComputeNewValue(ctx, queryOp("doc", "status"), map[string]any{"id": 1}, "done", nil, false)
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]any{"id": 1.0, "status": "done"}, v); diff != "" {
		t.Fatalf("unexpected value (-want +got):\n%s", diff)
	}

	obj := core.NewBusinessObject("Invoice", nil)
	obj.PersistenceID = 5
	v, err = s.ComputeNewValue(ctx, queryOp("invoice", "address.city"), obj, "Berlin", nil, false)
	require.NoError(t, err)
	updated := v.(*core.BusinessObject)
	assert.Equal(t, int64(5), updated.PersistenceID)
	assert.Equal(t, map[string]any{"city": "Berlin"}, updated.Get("address"))

	_, err = s.ComputeNewValue(ctx, queryOp("doc", ""), nil, 1, nil, false)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestSetterAttribute(t *testing.T) {
	attr, ok := setterAttribute("setCustomerName")
	assert.True(t, ok)
	assert.Equal(t, "customerName", attr)

	for _, m := range []string{"set", "settle", "Add", "get"} {
		_, ok := setterAttribute(m)
		assert.False(t, ok, m)
	}
}

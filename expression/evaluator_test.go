package expression

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/bpmcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEvaluator struct{ mock.Mock }

func (m *mockEvaluator) Evaluate(ctx context.Context, expr *core.Expression, scope map[string]any) (any, error) {
	args := m.Called(expr.Content)
	return args.Get(0), args.Error(1)
}

func TestComposite_StructuralKinds(t *testing.T) {
	c := NewComposite()
	scope := map[string]any{
		"order": map[string]any{"lines": []any{map[string]any{"qty": 2}}},
		"raw":   `{"status":"open"}`,
	}
	ctx := context.Background()

	v, err := c.Evaluate(ctx, core.Constant(5), scope)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = c.Evaluate(ctx, core.Variable("raw"), scope)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"open"}`, v)

	_, err = c.Evaluate(ctx, core.Variable("missing"), scope)
	assert.ErrorIs(t, err, ErrEvaluation)

	v, err = c.Evaluate(ctx, &core.Expression{Kind: core.KindQuery, Content: "lines.0.qty",
		Dependencies: []*core.Expression{core.Variable("order")}}, scope)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = c.Evaluate(ctx, &core.Expression{Kind: core.KindQuery, Content: "status",
		Dependencies: []*core.Expression{core.Variable("raw")}}, scope)
	require.NoError(t, err)
	assert.Equal(t, "open", v)

	v, err = c.Evaluate(ctx, &core.Expression{Kind: core.KindQuery, Content: "nope",
		Dependencies: []*core.Expression{core.Variable("raw")}}, scope)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = c.Evaluate(ctx, &core.Expression{Kind: core.KindList,
		Dependencies: []*core.Expression{core.Constant(1), core.Constant("a")}}, scope)
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a"}, v)

	v, err = c.Evaluate(ctx, nil, scope)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestComposite_DialectDispatch(t *testing.T) {
	script := &mockEvaluator{}
	script.On("Evaluate", "a+b").Return(3, nil)
	c := NewComposite(func(o *CompositeOptions) { o.Script = script })

	v, err := c.Evaluate(context.Background(), core.Script("a+b"), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	script.AssertExpectations(t)

	_, err = c.Evaluate(context.Background(), &core.Expression{Kind: "XPATH"}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	c.Register("XPATH", EvaluatorFunc(func(context.Context, *core.Expression, map[string]any) (any, error) {
		return "ok", nil
	}))
	v, err = c.Evaluate(context.Background(), &core.Expression{Kind: "XPATH"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestComposite_ConcurrentRegisterAndEvaluate(t *testing.T) {
	c := NewComposite()
	echo := EvaluatorFunc(func(_ context.Context, expr *core.Expression, _ map[string]any) (any, error) {
		return expr.Content, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Register(core.ExpressionKind(fmt.Sprintf("DIALECT_%d", i)), echo)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = c.Evaluate(context.Background(), core.Constant(1), nil)
			_, _ = c.Evaluate(context.Background(), &core.Expression{Kind: "DIALECT_0", Content: "x"}, nil)
		}()
	}
	wg.Wait()

	v, err := c.Evaluate(context.Background(), &core.Expression{Kind: "DIALECT_7", Content: "seven"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "seven", v)
}

func TestSatisfied_Policies(t *testing.T) {
	failing := EvaluatorFunc(func(_ context.Context, e *core.Expression, _ map[string]any) (any, error) {
		return nil, evalErr(e.Content, errors.New("boom"))
	})
	notBool := EvaluatorFunc(func(context.Context, *core.Expression, map[string]any) (any, error) {
		return "yes", nil
	})
	ctx := context.Background()
	expr := core.Script("x")

	ok, err := Satisfied(ctx, failing, PolicyStrict, expr, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrEvaluation)

	ok, err = Satisfied(ctx, failing, PolicyLenient, expr, nil)
	assert.False(t, ok)
	assert.NoError(t, err)

	_, err = Satisfied(ctx, notBool, PolicyStrict, expr, nil)
	assert.ErrorIs(t, err, ErrEvaluation)

	p, err := ParsePolicy("lenient")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)
	assert.Equal(t, "lenient", p.String())
	_, err = ParsePolicy("bogus")
	assert.Error(t, err)
}

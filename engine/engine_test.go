package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/hupe1980/bpmcore/businessdata"
	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/expression"
	"github.com/hupe1980/bpmcore/internal/testutil"
	"github.com/hupe1980/bpmcore/operation"
	"github.com/hupe1980/bpmcore/variable"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var container = core.Container{ID: 42, Type: core.ContainerActivityInstance}

// recordingHandler is a testify mock standing in for a category handler.
type recordingHandler struct {
	mock.Mock
	category core.Category
}

func (h *recordingHandler) Category() core.Category { return h.category }

func (h *recordingHandler) Load(ctx context.Context, c core.Container, names []string) (map[string]any, error) {
	args := h.Called(ctx, c, names)
	v, _ := args.Get(0).(map[string]any)
	return v, args.Error(1)
}

func (h *recordingHandler) Update(ctx context.Context, c core.Container, name string, value any) error {
	return h.Called(ctx, c, name, value).Error(0)
}

func (h *recordingHandler) Delete(ctx context.Context, c core.Container, name string) error {
	return h.Called(ctx, c, name).Error(0)
}

func newEngine(h *recordingHandler, optFns ...func(o *Options)) *Engine {
	return New(append([]func(o *Options){func(o *Options) {
		o.Handlers = operation.NewHandlerRegistry(h)
	}}, optFns...)...)
}

func TestEngine_LoadsOncePerCategoryAndCommitsOncePerTarget(t *testing.T) {
	h := &recordingHandler{category: core.CategoryData}
	h.On("Load", mock.Anything, container, []string{"data1", "data2"}).
		Return(map[string]any{"data1": map[string]any{}, "data2": map[string]any{}}, nil).Once()
	h.On("Update", mock.Anything, container, "data1", map[string]any{"x": 1}).Return(nil).Once()
	h.On("Update", mock.Anything, container, "data2", map[string]any{"a": 2.0, "b": 3}).Return(nil).Once()

	ops := testutil.NewOperationsBuilder().
		Method(core.CategoryData, "data1", "setX", core.Constant(1)).
		Query(core.CategoryData, "data2", "a", core.Constant(2)).
		Method(core.CategoryData, "data2", "setB", core.Constant(3)).
		Build()

	res, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	require.NoError(t, err)
	h.AssertExpectations(t)
	h.AssertNumberOfCalls(t, "Update", 2)
	assert.Equal(t, 2, res.Writes)
	assert.NotEmpty(t, res.BatchID)
	assert.Equal(t, map[string]any{"a": 2.0, "b": 3}, res.Values["data2"])
}

func TestEngine_AssignmentOnlyTargetsAreNotLoaded(t *testing.T) {
	h := &recordingHandler{category: core.CategoryData}
	h.On("Update", mock.Anything, container, "x", 3).Return(nil).Once()

	ops := testutil.NewOperationsBuilder().
		Assign(core.CategoryData, "x", core.Constant(1)).
		Assign(core.CategoryData, "x", core.Constant(2)).
		Assign(core.CategoryData, "x", core.Constant(3)).
		Build()

	_, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	require.NoError(t, err)
	h.AssertNotCalled(t, "Load", mock.Anything, mock.Anything, mock.Anything)
	h.AssertNumberOfCalls(t, "Update", 1)
}

func TestEngine_LoadNeverClobbersCallerValues(t *testing.T) {
	h := &recordingHandler{category: core.CategoryData}
	h.On("Load", mock.Anything, container, []string{"doc"}).Return(map[string]any{"doc": `{"from":"store"}`}, nil)
	h.On("Update", mock.Anything, container, "doc", mock.Anything).Return(nil)

	ops := testutil.NewOperationsBuilder().Query(core.CategoryData, "doc", "status", core.Constant("done")).Build()
	ec := operation.NewExecutionContext(container, 1, map[string]any{"doc": `{"from":"caller"}`})

	res, err := newEngine(h).Execute(context.Background(), ec, ops)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"caller","status":"done"}`, res.Values["doc"].(string))
}

func TestEngine_DeletionIsSticky(t *testing.T) {
	tests := []struct {
		name string
		ops  []*core.Operation
	}{
		{"assign then delete", testutil.NewOperationsBuilder().
			Assign(core.CategoryExternalData, "x", core.Constant("v")).
			Delete(core.CategoryExternalData, "x").
			Build()},
		{"delete then assign", testutil.NewOperationsBuilder().
			Delete(core.CategoryExternalData, "x").
			Assign(core.CategoryExternalData, "x", core.Constant("v")).
			Build()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{category: core.CategoryExternalData}
			h.On("Load", mock.Anything, container, []string{"x"}).Return(map[string]any{}, nil)
			h.On("Delete", mock.Anything, container, "x").Return(nil).Once()

			res, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), tt.ops)
			require.NoError(t, err)
			h.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			h.AssertNumberOfCalls(t, "Delete", 1)
			assert.Equal(t, operation.ActionDelete, res.Actions[core.LeftOperand{Category: core.CategoryExternalData, Name: "x"}])
		})
	}
}

func TestEngine_PersistsReferencedBusinessDataEarly(t *testing.T) {
	repo := businessdata.NewInMemoryStore()
	ev := expression.NewComposite()
	ev.Register("LINE", expression.EvaluatorFunc(func(_ context.Context, _ *core.Expression, scope map[string]any) (any, error) {
		invoice := scope["invoice"].(*core.BusinessObject)
		return core.NewBusinessObject("Line", map[string]any{"invoiceId": invoice.PersistenceID}), nil
	}))

	ops := testutil.NewOperationsBuilder().
		Assign(core.CategoryBusinessData, "invoice", core.Constant(core.NewBusinessObject("Invoice", nil))).
		Assign(core.CategoryBusinessData, "line", &core.Expression{
			Kind:         "LINE",
			Dependencies: []*core.Expression{core.BusinessDataRefExpr("invoice")},
		}).
		Method(core.CategoryBusinessData, "invoice", "setStatus", core.Constant("linked")).
		Build()

	eng := New(func(o *Options) {
		o.Evaluator = ev
		o.BusinessData = repo
	})
	res, err := eng.Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	require.NoError(t, err)

	invoice := res.Values["invoice"].(*core.BusinessObject)
	line := res.Values["line"].(*core.BusinessObject)
	require.NotZero(t, invoice.PersistenceID)
	assert.Equal(t, invoice.PersistenceID, line.Get("invoiceId"))
	assert.Equal(t, 3, res.Persisted)
	assert.Equal(t, 2, res.Writes)

	refs, err := repo.FindRefs(context.Background(), container, []string{"invoice", "line"})
	require.NoError(t, err)
	assert.Equal(t, []int64{invoice.PersistenceID}, refs["invoice"].IDs)

	stored, _ := repo.FindByIDs(context.Background(), []int64{invoice.PersistenceID})
	assert.Equal(t, "linked", stored[invoice.PersistenceID].Get("status"))
}

func TestEngine_DefersSupersededBusinessDataWrites(t *testing.T) {
	ops := testutil.NewOperationsBuilder().
		Assign(core.CategoryBusinessData, "invoice", core.Constant(core.NewBusinessObject("Invoice", nil))).
		Method(core.CategoryBusinessData, "invoice", "setStatus", core.Constant("open")).
		Method(core.CategoryBusinessData, "invoice", "setStatus", core.Constant("closed")).
		Build()

	res, err := New().Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Persisted)
	assert.Equal(t, 1, res.Writes)
}

func TestEngine_EvaluationFailureAbortsBatch(t *testing.T) {
	h := &recordingHandler{category: core.CategoryData}

	ops := testutil.NewOperationsBuilder().
		Assign(core.CategoryData, "a", core.Constant(1)).
		Assign(core.CategoryData, "b", core.Variable("missing")).
		Build()

	_, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	require.Error(t, err)
	assert.ErrorIs(t, err, expression.ErrEvaluation)

	var opErr *operation.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, 1, opErr.Index)
	h.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_FailedBatchLeavesCallerValuesUntouched(t *testing.T) {
	h := &recordingHandler{category: core.CategoryData}
	h.On("Load", mock.Anything, container, mock.Anything).Return(map[string]any{}, nil)

	order := map[string]any{"status": "open"}
	ops := testutil.NewOperationsBuilder().
		Method(core.CategoryData, "order", "setStatus", core.Constant("closed")).
		Assign(core.CategoryData, "b", core.Variable("missing")).
		Build()

	_, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, map[string]any{"order": order}), ops)
	require.Error(t, err)
	assert.Equal(t, map[string]any{"status": "open"}, order)
	h.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_HandlerFailures(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		h := &recordingHandler{category: core.CategoryData}
		h.On("Load", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		ops := testutil.NewOperationsBuilder().Method(core.CategoryData, "x", "setA", core.Constant(1)).Build()
		_, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("unknown category", func(t *testing.T) {
		h := &recordingHandler{category: core.CategoryData}
		ops := testutil.NewOperationsBuilder().Assign(core.CategoryDocument, "d", core.Constant(nil)).Build()
		_, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
		assert.ErrorIs(t, err, core.ErrUnknownCategory)
	})

	t.Run("unknown operator", func(t *testing.T) {
		h := &recordingHandler{category: core.CategoryData}
		ops := []*core.Operation{{LeftOperand: core.LeftOperand{Category: core.CategoryData, Name: "x"}, Kind: "MERGE"}}
		h.On("Load", mock.Anything, mock.Anything, mock.Anything).Return(map[string]any{}, nil)
		_, err := newEngine(h).Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
		assert.ErrorIs(t, err, core.ErrUnknownOperator)
	})

	t.Run("data deletion", func(t *testing.T) {
		_, err := New().Execute(context.Background(), operation.NewExecutionContext(container, 1, nil),
			testutil.NewOperationsBuilder().Delete(core.CategoryData, "x").Build())
		assert.ErrorIs(t, err, core.ErrDeletionUnsupported)
	})
}

func TestEngine_ScopeBindings(t *testing.T) {
	store := variable.NewInMemoryStore()
	ops := testutil.NewOperationsBuilder().
		Assign(core.CategoryData, "cid", core.Variable(operation.ContainerIDKey)).
		Assign(core.CategoryData, "def", core.Variable(operation.DefinitionIDKey)).
		Build()

	_, err := New(func(o *Options) { o.VariableStore = store }).
		Execute(context.Background(), operation.NewExecutionContext(container, 7, nil), ops)
	require.NoError(t, err)

	got, _ := store.Get(context.Background(), container, []string{"cid", "def"})
	assert.Equal(t, map[string]any{"cid": int64(42), "def": int64(7)}, got)
}

func TestEngine_Callbacks(t *testing.T) {
	var seen []CallbackType
	cm := NewCallbackManager()
	for _, typ := range []CallbackType{CallbackBeforeOperation, CallbackAfterOperation, CallbackBeforeCommit} {
		cm.RegisterCallback(NewFunctionCallback(typ, func(_ context.Context, cc *CallbackContext) error {
			seen = append(seen, cc.CallbackType)
			return nil
		}))
	}
	cm.RegisterCallback(NewValueValidationCallback(func(lo core.LeftOperand, value any) error {
		if value == nil {
			return errors.New(lo.Name + " must not be nil")
		}
		return nil
	}))
	var failed error
	cm.RegisterCallback(NewFunctionCallback(CallbackOnError, func(_ context.Context, cc *CallbackContext) error {
		failed = cc.Err
		return nil
	}))

	store := variable.NewInMemoryStore()
	eng := New(func(o *Options) {
		o.Callbacks = cm
		o.VariableStore = store
	})

	ops := testutil.NewOperationsBuilder().Assign(core.CategoryData, "x", core.Constant(1)).Build()
	_, err := eng.Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	require.NoError(t, err)
	assert.Equal(t, []CallbackType{CallbackBeforeOperation, CallbackAfterOperation, CallbackBeforeCommit}, seen)

	ops = testutil.NewOperationsBuilder().Assign(core.CategoryData, "y", core.Constant(nil)).Build()
	_, err = eng.Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	assert.ErrorContains(t, err, "y must not be nil")
	assert.Equal(t, err, failed)

	got, _ := store.Get(context.Background(), container, []string{"y"})
	assert.Empty(t, got)
}

func TestEngine_MaxOperations(t *testing.T) {
	eng := New(func(o *Options) { o.Config.MaxOperations = 1 })
	ops := testutil.NewOperationsBuilder().
		Assign(core.CategoryData, "a", core.Constant(1)).
		Assign(core.CategoryData, "b", core.Constant(2)).
		Build()
	_, err := eng.Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestEngine_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	eng := New(func(o *Options) { o.TracerProvider = tp })
	ops := testutil.NewOperationsBuilder().Assign(core.CategoryData, "a", core.Constant(1)).Build()
	_, err := eng.Execute(context.Background(), operation.NewExecutionContext(container, 1, nil), ops)
	require.NoError(t, err)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"load", "execute", "commit", "operation.execute"}, names)
}

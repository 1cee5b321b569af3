package operation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bpmcore/businessdata"
	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/document"
	"github.com/hupe1980/bpmcore/external"
	"github.com/hupe1980/bpmcore/variable"
)

var testContainer = core.Container{ID: 1, Type: core.ContainerProcessInstance}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry(
		NewDataHandler(variable.NewInMemoryStore()),
		NewDocumentHandler(document.NewInMemoryStore()),
	)
	h, err := r.Get(core.CategoryData)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryData, h.Category())

	_, err = r.Get(core.CategoryBusinessData)
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
	assert.Equal(t, []core.Category{core.CategoryData, core.CategoryDocument}, r.Categories())
}

func TestDataHandler(t *testing.T) {
	ctx := context.Background()
	h := NewTransientDataHandler(variable.NewInMemoryStore())
	assert.Equal(t, core.CategoryTransientData, h.Category())

	require.NoError(t, h.Update(ctx, testContainer, "x", 1))
	got, err := h.Load(ctx, testContainer, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1}, got)

	assert.ErrorIs(t, h.Delete(ctx, testContainer, "x"), core.ErrDeletionUnsupported)
}

func TestExternalDataHandler(t *testing.T) {
	ctx := context.Background()
	h := NewExternalDataHandler(external.NewInMemoryStore())

	require.NoError(t, h.Update(ctx, testContainer, "rate", 1.5))
	got, _ := h.Load(ctx, testContainer, []string{"rate"})
	assert.Equal(t, map[string]any{"rate": 1.5}, got)

	require.NoError(t, h.Update(ctx, testContainer, "rate", nil))
	require.NoError(t, h.Delete(ctx, testContainer, "rate"))
	got, _ = h.Load(ctx, testContainer, []string{"rate"})
	assert.Empty(t, got)
}

func TestDocumentHandler(t *testing.T) {
	ctx := context.Background()
	h := NewDocumentHandler(document.NewInMemoryStore())

	require.NoError(t, h.Update(ctx, testContainer, "contract", core.FileInput{FileName: "c.pdf", ContentType: "application/pdf", Content: []byte("%PDF")}))
	got, err := h.Load(ctx, testContainer, []string{"contract"})
	require.NoError(t, err)
	doc := got["contract"].(*core.Document)
	assert.Equal(t, "contract", doc.Name)
	assert.Equal(t, "c.pdf", doc.FileName)
	assert.False(t, doc.Created.IsZero())

	require.NoError(t, h.Delete(ctx, testContainer, "contract"))
	require.NoError(t, h.Delete(ctx, testContainer, "contract"))

	assert.ErrorIs(t, h.Update(ctx, testContainer, "contract", 42), ErrInvalidValue)
}

func TestToDocument_Map(t *testing.T) {
	doc, err := ToDocument("scan", map[string]any{"filename": "s.png", "content": "raw", "url": "http://x/s.png"})
	require.NoError(t, err)
	assert.Equal(t, "scan", doc.Name)
	assert.Equal(t, []byte("raw"), doc.Content)
	assert.Equal(t, "http://x/s.png", doc.URL)
}

func TestToDocument_NilPointers(t *testing.T) {
	_, err := ToDocument("scan", (*core.Document)(nil))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = ToDocument("scan", (*core.FileInput)(nil))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestBusinessDataHandler_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := businessdata.NewInMemoryStore()
	h := NewBusinessDataHandler(repo)

	invoice := core.NewBusinessObject("Invoice", map[string]any{"total": 10})
	require.NoError(t, h.Update(ctx, testContainer, "invoice", invoice))
	require.NotZero(t, invoice.PersistenceID)

	lines := []any{
		core.NewBusinessObject("Line", map[string]any{"sku": "a"}),
		core.NewBusinessObject("Line", map[string]any{"sku": "b"}),
	}
	require.NoError(t, h.Update(ctx, testContainer, "lines", lines))

	got, err := h.Load(ctx, testContainer, []string{"invoice", "lines", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 10, got["invoice"].(*core.BusinessObject).Get("total"))
	loaded := got["lines"].([]*core.BusinessObject)
	require.Len(t, loaded, 2)
	assert.Equal(t, "b", loaded[1].Get("sku"))

	require.NoError(t, h.Delete(ctx, testContainer, "lines"))
	require.NoError(t, h.Delete(ctx, testContainer, "lines"))
	objs, _ := repo.FindByIDs(ctx, []int64{loaded[0].PersistenceID, loaded[1].PersistenceID})
	assert.Empty(t, objs)

	require.NoError(t, h.Update(ctx, testContainer, "invoice", nil))
	got, _ = h.Load(ctx, testContainer, []string{"invoice"})
	assert.Empty(t, got)

	assert.ErrorIs(t, h.Update(ctx, testContainer, "invoice", map[string]any{"total": 1}), ErrInvalidValue)
}

func TestBusinessDataHandler_Persist(t *testing.T) {
	ctx := context.Background()
	h := NewBusinessDataHandler(businessdata.NewInMemoryStore())

	v, err := h.Persist(ctx, testContainer, "invoice", core.NewBusinessObject("Invoice", nil))
	require.NoError(t, err)
	assert.NotZero(t, v.(*core.BusinessObject).PersistenceID)

	v, err = h.Persist(ctx, testContainer, "invoice", nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	got, _ := h.Load(ctx, testContainer, []string{"invoice"})
	assert.Empty(t, got, "persist does not link the container")
}

package operation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

// DocumentHandler backs DOCUMENT left operands with a DocumentStore.
type DocumentHandler struct {
	store core.DocumentStore
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(store core.DocumentStore) *DocumentHandler {
	return &DocumentHandler{store: store}
}

// Category implements LeftOperandHandler.
func (h *DocumentHandler) Category() core.Category { return core.CategoryDocument }

// Load implements LeftOperandHandler.
func (h *DocumentHandler) Load(ctx context.Context, c core.Container, names []string) (map[string]any, error) {
	docs, err := h.store.Get(ctx, c, names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(docs))
	for name, doc := range docs {
		out[name] = doc
	}
	return out, nil
}

// Update implements LeftOperandHandler. The stored document always takes
// the left operand's name; a nil value removes it.
func (h *DocumentHandler) Update(ctx context.Context, c core.Container, name string, value any) error {
	if value == nil {
		return h.Delete(ctx, c, name)
	}
	doc, err := ToDocument(name, value)
	if err != nil {
		return err
	}
	return h.store.Save(ctx, c, doc)
}

// Delete implements LeftOperandHandler. A missing document is not an error.
func (h *DocumentHandler) Delete(ctx context.Context, c core.Container, name string) error {
	if err := h.store.Delete(ctx, c, name); err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	return nil
}

// ToDocument converts a document, a file input or a file-shaped map into a
// document named name.
func ToDocument(name string, value any) (*core.Document, error) {
	var doc core.Document
	switch v := value.(type) {
	case *core.Document:
		if v == nil {
			return nil, fmt.Errorf("%w: document [%s] is a nil *Document", ErrInvalidValue, name)
		}
		doc = *v
	case core.Document:
		doc = v
	case *core.FileInput:
		if v == nil {
			return nil, fmt.Errorf("%w: document [%s] is a nil *FileInput", ErrInvalidValue, name)
		}
		doc = core.Document{FileName: v.FileName, ContentType: v.ContentType, Content: v.Content}
	case core.FileInput:
		doc = core.Document{FileName: v.FileName, ContentType: v.ContentType, Content: v.Content}
	default:
		m, ok := util.AsMap(value)
		if !ok {
			return nil, fmt.Errorf("%w: document [%s] cannot hold %T", ErrInvalidValue, name, value)
		}
		doc.FileName, _ = m["filename"].(string)
		doc.ContentType, _ = m["contentType"].(string)
		doc.URL, _ = m["url"].(string)
		switch content := m["content"].(type) {
		case []byte:
			doc.Content = content
		case string:
			doc.Content = []byte(content)
		}
	}
	doc.Name = name
	if doc.Created.IsZero() {
		doc.Created = time.Now().UTC()
	}
	return &doc, nil
}

var _ LeftOperandHandler = (*DocumentHandler)(nil)

package operation

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/bpmcore/core"
)

// DataHandler backs process data and transient data with a VariableStore.
// Neither category can be deleted.
type DataHandler struct {
	category core.Category
	store    core.VariableStore
}

// NewDataHandler handles DATA left operands.
func NewDataHandler(store core.VariableStore) *DataHandler {
	return &DataHandler{category: core.CategoryData, store: store}
}

// NewTransientDataHandler handles TRANSIENT_DATA left operands.
func NewTransientDataHandler(store core.VariableStore) *DataHandler {
	return &DataHandler{category: core.CategoryTransientData, store: store}
}

// Category implements LeftOperandHandler.
func (h *DataHandler) Category() core.Category { return h.category }

// Load implements LeftOperandHandler.
func (h *DataHandler) Load(ctx context.Context, c core.Container, names []string) (map[string]any, error) {
	return h.store.Get(ctx, c, names)
}

// Update implements LeftOperandHandler.
func (h *DataHandler) Update(ctx context.Context, c core.Container, name string, value any) error {
	return h.store.Set(ctx, c, name, value)
}

// Delete implements LeftOperandHandler.
func (h *DataHandler) Delete(_ context.Context, _ core.Container, name string) error {
	return fmt.Errorf("%w: %s[%s]", core.ErrDeletionUnsupported, h.category, name)
}

// ExternalDataHandler backs EXTERNAL_DATA left operands with a KVStore.
type ExternalDataHandler struct {
	store core.KVStore
}

// NewExternalDataHandler creates an ExternalDataHandler.
func NewExternalDataHandler(store core.KVStore) *ExternalDataHandler {
	return &ExternalDataHandler{store: store}
}

// Category implements LeftOperandHandler.
func (h *ExternalDataHandler) Category() core.Category { return core.CategoryExternalData }

// Load implements LeftOperandHandler.
func (h *ExternalDataHandler) Load(ctx context.Context, c core.Container, names []string) (map[string]any, error) {
	return h.store.Get(ctx, c, names)
}

// Update implements LeftOperandHandler. A nil value removes the entry.
func (h *ExternalDataHandler) Update(ctx context.Context, c core.Container, name string, value any) error {
	if value == nil {
		return h.Delete(ctx, c, name)
	}
	return h.store.Put(ctx, c, name, value)
}

// Delete implements LeftOperandHandler. A missing entry is not an error.
func (h *ExternalDataHandler) Delete(ctx context.Context, c core.Container, name string) error {
	if err := h.store.Delete(ctx, c, name); err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	return nil
}

var (
	_ LeftOperandHandler = (*DataHandler)(nil)
	_ LeftOperandHandler = (*ExternalDataHandler)(nil)
)

package operation

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/bpmcore/core"
)

// LeftOperandHandler reads and writes the values of one left operand
// category.
type LeftOperandHandler interface {
	Category() core.Category
	// Load returns the current values for names; names without a value are omitted.
	Load(ctx context.Context, c core.Container, names []string) (map[string]any, error)
	Update(ctx context.Context, c core.Container, name string, value any) error
	Delete(ctx context.Context, c core.Container, name string) error
}

// Persister is implemented by handlers that can make a value durable in
// the middle of a batch. The returned value replaces the working value.
type Persister interface {
	Persist(ctx context.Context, c core.Container, name string, value any) (any, error)
}

// HandlerRegistry maps categories to handlers.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[core.Category]LeftOperandHandler
}

// NewHandlerRegistry creates a registry holding the given handlers.
func NewHandlerRegistry(handlers ...LeftOperandHandler) *HandlerRegistry {
	r := &HandlerRegistry{handlers: make(map[core.Category]LeftOperandHandler, len(handlers))}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register installs (or replaces) the handler for its category.
func (r *HandlerRegistry) Register(h LeftOperandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Category()] = h
}

// Get returns the handler for cat or an error wrapping core.ErrUnknownCategory.
func (r *HandlerRegistry) Get(cat core.Category) (LeftOperandHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCategory, cat)
	}
	return h, nil
}

// Categories returns the registered categories in core.Categories order.
func (r *HandlerRegistry) Categories() []core.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Category, 0, len(r.handlers))
	for _, c := range core.Categories {
		if _, ok := r.handlers[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

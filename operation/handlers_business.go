package operation

import (
	"context"
	"fmt"

	"github.com/hupe1980/bpmcore/core"
)

// BusinessDataHandler backs BUSINESS_DATA left operands. Values are a
// *core.BusinessObject or a list of them; the container keeps a reference
// to the ids under the operand's name.
type BusinessDataHandler struct {
	repo core.BusinessDataRepository
}

// NewBusinessDataHandler creates a BusinessDataHandler.
func NewBusinessDataHandler(repo core.BusinessDataRepository) *BusinessDataHandler {
	return &BusinessDataHandler{repo: repo}
}

// Category implements LeftOperandHandler.
func (h *BusinessDataHandler) Category() core.Category { return core.CategoryBusinessData }

// Load implements LeftOperandHandler. Single references yield an object,
// multiple references a []*core.BusinessObject in reference order.
func (h *BusinessDataHandler) Load(ctx context.Context, c core.Container, names []string) (map[string]any, error) {
	refs, err := h.repo.FindRefs(ctx, c, names)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, ref := range refs {
		ids = append(ids, ref.IDs...)
	}
	objects, err := h.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(refs))
	for name, ref := range refs {
		if !ref.Multiple {
			if len(ref.IDs) > 0 {
				if obj, ok := objects[ref.IDs[0]]; ok {
					out[name] = obj
				}
			}
			continue
		}
		list := make([]*core.BusinessObject, 0, len(ref.IDs))
		for _, id := range ref.IDs {
			if obj, ok := objects[id]; ok {
				list = append(list, obj)
			}
		}
		out[name] = list
	}
	return out, nil
}

// Persist saves the object(s) now and returns them with ids assigned.
// A nil value is left to the commit phase.
func (h *BusinessDataHandler) Persist(ctx context.Context, _ core.Container, name string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	objs, multiple, err := businessObjects(name, value)
	if err != nil {
		return nil, err
	}
	for _, obj := range objs {
		if err := h.repo.Save(ctx, obj); err != nil {
			return nil, err
		}
	}
	if multiple {
		return objs, nil
	}
	return objs[0], nil
}

// Update implements LeftOperandHandler: it saves the object(s) and points
// the container's reference at them. A nil value drops the reference.
func (h *BusinessDataHandler) Update(ctx context.Context, c core.Container, name string, value any) error {
	if value == nil {
		return h.repo.DeleteRef(ctx, c, name)
	}
	objs, multiple, err := businessObjects(name, value)
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(objs))
	for _, obj := range objs {
		if err := h.repo.Save(ctx, obj); err != nil {
			return err
		}
		ids = append(ids, obj.PersistenceID)
	}
	return h.repo.SetRef(ctx, c, &core.BusinessDataRef{Name: name, Multiple: multiple, IDs: ids})
}

// Delete implements LeftOperandHandler: it removes the referenced objects
// and the reference. A missing reference is not an error.
func (h *BusinessDataHandler) Delete(ctx context.Context, c core.Container, name string) error {
	refs, err := h.repo.FindRefs(ctx, c, []string{name})
	if err != nil {
		return err
	}
	ref, ok := refs[name]
	if !ok {
		return nil
	}
	for _, id := range ref.IDs {
		if err := h.repo.Delete(ctx, id); err != nil {
			return err
		}
	}
	return h.repo.DeleteRef(ctx, c, name)
}

func businessObjects(name string, value any) ([]*core.BusinessObject, bool, error) {
	switch v := value.(type) {
	case *core.BusinessObject:
		return []*core.BusinessObject{v}, false, nil
	case []*core.BusinessObject:
		for _, obj := range v {
			if obj == nil {
				return nil, true, fmt.Errorf("%w: business data [%s] holds a nil object", ErrInvalidValue, name)
			}
		}
		return v, true, nil
	case []any:
		out := make([]*core.BusinessObject, 0, len(v))
		for _, e := range v {
			obj, ok := e.(*core.BusinessObject)
			if !ok || obj == nil {
				return nil, true, fmt.Errorf("%w: business data [%s] cannot hold %T", ErrInvalidValue, name, e)
			}
			out = append(out, obj)
		}
		return out, true, nil
	}
	return nil, false, fmt.Errorf("%w: business data [%s] cannot hold %T", ErrInvalidValue, name, value)
}

var (
	_ LeftOperandHandler = (*BusinessDataHandler)(nil)
	_ Persister          = (*BusinessDataHandler)(nil)
)

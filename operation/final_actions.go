package operation

import "github.com/hupe1980/bpmcore/core"

// FinalAction is the single write a target receives at commit time.
type FinalAction int

const (
	ActionUpdate FinalAction = iota
	ActionDelete
)

// String returns the action name.
func (a FinalAction) String() string {
	if a == ActionDelete {
		return "DELETE"
	}
	return "UPDATE"
}

// FinalActions records one action per left operand in order of first
// touch. A deletion, once recorded, is never replaced.
type FinalActions struct {
	order   []core.LeftOperand
	actions map[core.LeftOperand]FinalAction
}

// NewFinalActions creates an empty record.
func NewFinalActions() *FinalActions {
	return &FinalActions{actions: make(map[core.LeftOperand]FinalAction)}
}

// Record classifies one operation on lo.
func (f *FinalActions) Record(lo core.LeftOperand, deletion bool) {
	current, seen := f.actions[lo]
	switch {
	case !seen:
		f.order = append(f.order, lo)
		if deletion {
			f.actions[lo] = ActionDelete
		} else {
			f.actions[lo] = ActionUpdate
		}
	case deletion && current != ActionDelete:
		f.actions[lo] = ActionDelete
	}
}

// Get returns the recorded action for lo.
func (f *FinalActions) Get(lo core.LeftOperand) (FinalAction, bool) {
	a, ok := f.actions[lo]
	return a, ok
}

// Len returns the number of targets.
func (f *FinalActions) Len() int { return len(f.order) }

// Each calls fn per target in first-touch order and stops at the first error.
func (f *FinalActions) Each(fn func(lo core.LeftOperand, action FinalAction) error) error {
	for _, lo := range f.order {
		if err := fn(lo, f.actions[lo]); err != nil {
			return err
		}
	}
	return nil
}

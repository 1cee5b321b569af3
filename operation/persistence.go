package operation

import "github.com/hupe1980/bpmcore/core"

// ShouldPersist combines the positional decision with the value: a nil
// value is written through only when the strategy persists on nil.
func ShouldPersist(value any, position, persistOnNull bool) bool {
	return position && (value != nil || persistOnNull)
}

// PersistenceDecisionResolver decides, per operation index, whether the
// batch is at a position where the left operand must become durable
// before the commit phase.
type PersistenceDecisionResolver struct {
	ops  []*core.Operation
	last map[core.LeftOperand]int
}

// NewPersistenceDecisionResolver indexes the last occurrence of every target.
func NewPersistenceDecisionResolver(ops []*core.Operation) *PersistenceDecisionResolver {
	last := make(map[core.LeftOperand]int, len(ops))
	for i, op := range ops {
		last[op.LeftOperand] = i
	}
	return &PersistenceDecisionResolver{ops: ops, last: last}
}

// PersistPosition reports whether operation i is the terminal write of its
// target, or whether an operation before the next write to the same target
// references it from its right operand.
func (r *PersistenceDecisionResolver) PersistPosition(i int) bool {
	target := r.ops[i].LeftOperand
	if r.last[target] == i {
		return true
	}
	next := r.nextIndex(i)
	for j := i + 1; j < next; j++ {
		if r.ops[j].RightOperand.References(target.Name) {
			return true
		}
	}
	return false
}

func (r *PersistenceDecisionResolver) nextIndex(i int) int {
	target := r.ops[i].LeftOperand
	for j := i + 1; j < len(r.ops); j++ {
		if r.ops[j].LeftOperand == target {
			return j
		}
	}
	return len(r.ops)
}

package branches

import (
	m "github.com/opencollective/deep-cover/internal/model"
)

// buildShortCircuit reports a conjunction or disjunction. Both operand
// sub-expressions always exist, so no location fallback applies: the
// evaluated-right branch sits at the right operand, the short-circuited
// branch at the left.
//
// For a conjunction the truthy path is "right side evaluated"; a
// disjunction is the mirror image, where short-circuiting means the whole
// expression was already truthy.
func (p *Pass) buildShortCircuit(id m.NodeID) (m.BranchRecord, error) {
	n := p.Tree.Node(id)

	if !n.Cond.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "left operand")
	}

	if !n.Body.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "right operand")
	}

	key := m.TagAnd
	if n.Kind == m.KindShortCircuitOr {
		key = m.TagOr
	}

	condition := p.descriptor(key, n.Range)

	total := p.Flow.ExecutionCount(id)
	right := p.Flow.ExecutionCount(n.Body)
	skipped := total - right

	if skipped < 0 {
		return m.BranchRecord{}, p.negative(id, "short-circuit count", skipped)
	}

	rightLoc := p.Tree.Node(n.Body).Range
	leftLoc := p.Tree.Node(n.Cond).Range

	var branches []m.BranchCount

	if n.Kind == m.KindShortCircuitAnd {
		branches = []m.BranchCount{
			{Descriptor: p.descriptor(m.TagThen, rightLoc), Count: right},
			{Descriptor: p.descriptor(m.TagElse, leftLoc), Count: skipped},
		}
	} else {
		branches = []m.BranchCount{
			{Descriptor: p.descriptor(m.TagThen, leftLoc), Count: skipped},
			{Descriptor: p.descriptor(m.TagElse, rightLoc), Count: right},
		}
	}

	return m.BranchRecord{Condition: condition, Branches: branches}, nil
}

package branches

import (
	m "github.com/opencollective/deep-cover/internal/model"
)

// buildDispatch reports a case/when construct: one branch per written arm
// plus a trailing else branch that is synthesized when no else was written.
// The synthesized else is located at the subject expression, count zero or
// whatever did not match any arm.
func (p *Pass) buildDispatch(id m.NodeID) (m.BranchRecord, error) {
	n := p.Tree.Node(id)

	if !n.Cond.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "subject expression")
	}

	condition := p.descriptor(m.TagCase, n.Range)

	total := p.Flow.ExecutionCount(id)
	matched := int64(0)

	branches := make([]m.BranchCount, 0, len(n.Arms)+1)

	for _, arm := range n.Arms {
		armNode := p.Tree.Node(arm)

		// An arm with an empty body is materialized by the frontend as
		// an EmptyBody just past the pattern; the arm node itself still
		// carries the entered tracker.
		count := p.Flow.ExecutionCount(arm)
		matched += count

		loc := armNode.Range
		if armNode.Body.Valid() {
			loc = p.Tree.Node(armNode.Body).Range
		}

		branches = append(branches, m.BranchCount{
			Descriptor: p.descriptor(m.TagWhen, loc),
			Count:      count,
		})
	}

	elseCount := int64(0)
	if n.Else.Valid() {
		elseCount = p.Flow.ExecutionCount(n.Else)
	} else {
		elseCount = total - matched
		if elseCount < 0 {
			return m.BranchRecord{}, p.negative(id, "default arm count", elseCount)
		}
	}

	branches = append(branches, m.BranchCount{
		Descriptor: p.descriptorFor(m.TagElse, id, n.Else),
		Count:      elseCount,
	})

	return m.BranchRecord{Condition: condition, Branches: branches}, nil
}

package branches

import (
	m "github.com/opencollective/deep-cover/internal/model"
)

// buildConditional reports if/unless in all surface forms, ternaries and
// modifiers included. Elsif chains arrive folded as nested conditionals in
// the else slot and produce one record each.
func (p *Pass) buildConditional(id m.NodeID) (m.BranchRecord, error) {
	n := p.Tree.Node(id)

	if !n.Cond.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "condition")
	}

	if !n.Body.Valid() && !n.Else.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "branch")
	}

	key := m.TagIf
	if n.Negated {
		key = m.TagUnless
	}

	condition := p.descriptor(key, p.chainRange(id))

	total := p.Flow.ExecutionCount(id)

	thenCount, thenKnown := p.branchCount(n.Body)
	elseCount, elseKnown := p.branchCount(n.Else)

	// A slot with no syntax has no counter; its count is whatever did not
	// flow into the written branch.
	if !thenKnown {
		thenCount = total - elseCount
	}

	if !elseKnown {
		elseCount = total - thenCount
	}

	if thenCount < 0 {
		return m.BranchRecord{}, p.negative(id, "then branch count", thenCount)
	}

	if elseCount < 0 {
		return m.BranchRecord{}, p.negative(id, "else branch count", elseCount)
	}

	// The negated surface form lists its branches in reverse; descriptors
	// are created in listing order so location ids follow suit.
	var out []m.BranchCount

	if n.Negated {
		out = append(out, m.BranchCount{
			Descriptor: p.descriptorFor(m.TagElse, id, n.Else),
			Count:      elseCount,
		})
		out = append(out, m.BranchCount{
			Descriptor: p.descriptorFor(m.TagThen, id, n.Body),
			Count:      thenCount,
		})
	} else {
		out = append(out, m.BranchCount{
			Descriptor: p.descriptorFor(m.TagThen, id, n.Body),
			Count:      thenCount,
		})
		out = append(out, m.BranchCount{
			Descriptor: p.descriptorFor(m.TagElse, id, n.Else),
			Count:      elseCount,
		})
	}

	return m.BranchRecord{Condition: condition, Branches: out}, nil
}

// branchCount returns the executions of a branch child and whether the slot
// had syntax (and therefore a counter) at all.
func (p *Pass) branchCount(child m.NodeID) (int64, bool) {
	if !child.Valid() {
		return 0, false
	}

	return p.Flow.ExecutionCount(child), true
}

func (p *Pass) descriptorFor(tag string, enclosing, branch m.NodeID) m.Descriptor {
	return p.descriptor(tag, p.branchLocation(enclosing, branch))
}

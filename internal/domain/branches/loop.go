package branches

import (
	m "github.com/opencollective/deep-cover/internal/model"
)

// buildLoop reports while/until loops of both testing polarities. The
// single body branch counts body executions; the frontend gives a post-test
// loop's compound body a range covering the whole sequence, and an empty
// body arrives as an EmptyBody marker just inside the closing keyword.
func (p *Pass) buildLoop(id m.NodeID) (m.BranchRecord, error) {
	n := p.Tree.Node(id)

	if !n.Cond.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "condition")
	}

	key := m.TagWhile
	if n.Negated {
		key = m.TagUntil
	}

	condition := p.descriptor(key, n.Range)

	count := int64(0)
	if n.Body.Valid() {
		count = p.Flow.ExecutionCount(n.Body)
	}

	body := m.BranchCount{
		Descriptor: p.descriptorFor(m.TagBody, id, n.Body),
		Count:      count,
	}

	return m.BranchRecord{
		Condition: condition,
		Branches:  []m.BranchCount{body},
	}, nil
}

package branches

import (
	m "github.com/opencollective/deep-cover/internal/model"
)

// buildSafeNavigation reports a &. call. Both outcomes carry dedicated
// trackers injected around the call, so the counts are read directly
// rather than derived.
func (p *Pass) buildSafeNavigation(id m.NodeID) (m.BranchRecord, error) {
	n := p.Tree.Node(id)

	if !n.Cond.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "receiver")
	}

	if !n.Body.Valid() {
		return m.BranchRecord{}, p.missingChild(id, "call")
	}

	condition := p.descriptor(m.TagSafeNav, n.Range)

	made := p.Flow.ExecutionCount(n.Body)
	if n.Trackers.Then.Valid() {
		made = p.hits(n.Trackers.Then)
	}

	skipped := int64(0)
	if n.Trackers.Else.Valid() {
		skipped = p.hits(n.Trackers.Else)
	}

	branches := []m.BranchCount{
		{
			Descriptor: p.descriptor(m.TagThen, p.Tree.Node(n.Body).Range),
			Count:      made,
		},
		{
			Descriptor: p.descriptor(m.TagElse, n.Range),
			Count:      skipped,
		},
	}

	return m.BranchRecord{Condition: condition, Branches: branches}, nil
}

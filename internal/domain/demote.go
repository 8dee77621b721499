package domain

import (
	"github.com/opencollective/deep-cover/internal/domain/flow"
	m "github.com/opencollective/deep-cover/internal/model"
)

// demoteRuns applies the coverage demotion policy: a branching node whose
// own run count is non-zero but whose worst immediate sub-branch is not
// covered reports that sub-branch's count instead of its own. Evaluation is
// bottom-up so an uncovered branch nested anywhere inside a branch body
// demotes every enclosing branch on the way out.
//
// The result carries one entry per branch record, in record order, keyed by
// the condition descriptor's location id.
func demoteRuns(tree *m.Tree, fl *flow.Model, records []m.BranchRecord) []m.NodeRun {
	byNode := make(map[m.NodeID]*m.BranchRecord, len(records))
	for i := range records {
		byNode[records[i].Node] = &records[i]
	}

	memo := make(map[m.NodeID]int64)

	var effective func(id m.NodeID) int64
	effective = func(id m.NodeID) int64 {
		if v, ok := memo[id]; ok {
			return v
		}

		raw := fl.ExecutionCount(id)
		memo[id] = raw // seed against degenerate cycles

		v := raw
		if m.Covered(raw) {
			if rec, ok := byNode[id]; ok {
				v = demote(tree, rec, raw, effective)
			} else {
				// Non-branching nodes pass the worst covered-ness
				// of their children outward.
				for _, child := range tree.Node(id).Children {
					if e := effective(child); !m.Covered(e) {
						v = e
						break
					}
				}
			}
		}

		memo[id] = v

		return v
	}

	runs := make([]m.NodeRun, 0, len(records))
	for _, rec := range records {
		runs = append(runs, m.NodeRun{
			LocationID: rec.Condition.LocationID,
			Line:       rec.Condition.StartLine,
			Count:      effective(rec.Node),
		})
	}

	return runs
}

// demote computes the replacement run count for one branching node. Each
// sub-branch contributes the smaller of its reported count and, when the
// branch maps to a tree node, that node's effective count.
func demote(tree *m.Tree, rec *m.BranchRecord, raw int64, effective func(m.NodeID) int64) int64 {
	if len(rec.Branches) == 0 {
		return raw
	}

	node := tree.Node(rec.Node)

	min := rec.Branches[0].Count
	for i, b := range rec.Branches {
		count := b.Count

		if child := branchChild(node, i, b); child.Valid() {
			if e := effective(child); e < count {
				count = e
			}
		}

		if i == 0 || count < min {
			min = count
		}
	}

	if !m.Covered(min) {
		return min
	}

	return raw
}

// branchChild maps a record's i-th sub-branch back to the tree node it was
// derived from, or NoNode for synthesized branches.
func branchChild(node *m.Node, i int, b m.BranchCount) m.NodeID {
	switch node.Kind {
	case m.KindConditional:
		if b.Descriptor.Tag == m.TagThen {
			return node.Body
		}

		return node.Else

	case m.KindMultiwayDispatch:
		if i < len(node.Arms) {
			return node.Arms[i]
		}

		return node.Else

	case m.KindLoop:
		return node.Body

	case m.KindShortCircuitAnd, m.KindShortCircuitOr, m.KindSafeNavigation:
		// Operand branches read dedicated counters; there is no body to
		// recurse into.
		return m.NoNode

	default:
		return m.NoNode
	}
}

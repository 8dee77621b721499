package branches

import (
	m "github.com/opencollective/deep-cover/internal/model"
)

// branchLocation resolves the source range reported for a branch slot.
//
// Priority order:
//  1. A branch with real content reports its own range.
//  2. A slot that is syntactically present but empty is materialized by
//     the frontend as an EmptyBody node whose range is the explicit-empty
//     marker (just past the introducing token, past whitespace and
//     comments); that marker range is used as-is.
//  3. A slot with no syntax at all falls back to the enclosing node's full
//     range. A multiway dispatch with no written default arm instead falls
//     back to the subject expression's range; the reference format does
//     this and the quirk must be preserved exactly.
func (p *Pass) branchLocation(enclosing, branch m.NodeID) m.SourceRange {
	if branch.Valid() {
		return p.Tree.Node(branch).Range
	}

	encl := p.Tree.Node(enclosing)
	if encl.Kind == m.KindMultiwayDispatch && encl.Cond.Valid() {
		return p.Tree.Node(encl.Cond).Range
	}

	return encl.Range
}

// chainRange is the reportable range for a conditional. When the chain's
// final else arm is syntactically empty the range of the whole chain is
// extended to the terminating keyword of the outermost conditional, which
// is how the reference runtime attributes an empty tail branch.
func (p *Pass) chainRange(id m.NodeID) m.SourceRange {
	n := p.Tree.Node(id)
	r := n.Range

	if !n.Else.Valid() || p.Tree.Node(n.Else).Kind != m.KindEmptyBody {
		return r
	}

	top := id
	for {
		parent := p.Tree.Node(top).Parent
		if !parent.Valid() {
			break
		}

		pn := p.Tree.Node(parent)
		if pn.Kind != m.KindConditional || pn.Else != top {
			break
		}

		top = parent
	}

	r.End = p.Tree.Node(top).Range.End

	return r
}

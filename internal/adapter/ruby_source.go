package adapter

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	m "github.com/opencollective/deep-cover/internal/model"
)

// RubySourceAdapter builds decorated trees from Ruby sources so the domain
// layer never touches a parser. Tracker ids are assigned in deterministic
// pre-order, matching the order the source instrumenter injects counters.
type RubySourceAdapter interface {
	// Parse decorates the given source. It returns the tree and the
	// number of tracker slots assigned.
	Parse(path m.Path, content []byte) (*m.Tree, int, error)
}

// TreeSitterRubyAdapter is a RubySourceAdapter backed by tree-sitter.
type TreeSitterRubyAdapter struct{}

// NewTreeSitterRubyAdapter constructs a TreeSitterRubyAdapter.
func NewTreeSitterRubyAdapter() *TreeSitterRubyAdapter {
	return &TreeSitterRubyAdapter{}
}

// Parse implements RubySourceAdapter.
func (a *TreeSitterRubyAdapter) Parse(path m.Path, content []byte) (*m.Tree, int, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(ruby.GetLanguage())

	parsed := parser.Parse(nil, content)
	if parsed == nil {
		return nil, 0, fmt.Errorf("parsing %s: no tree produced", path)
	}
	defer parsed.Close()

	b := &treeBuilder{
		src:  m.NewSourceMap(content),
		tree: &m.Tree{File: path},
	}

	root := b.add(m.NoNode, m.Node{
		Kind:     m.KindRoot,
		Range:    rangeOf(parsed.RootNode()),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})
	b.tree.Root = root

	b.buildSequence(parsed.RootNode(), root)

	return b.tree, int(b.trackers), nil
}

// treeBuilder walks a tree-sitter parse tree and emits decorated nodes into
// the arena.
type treeBuilder struct {
	src      *m.SourceMap
	tree     *m.Tree
	trackers m.TrackerID
}

func (b *treeBuilder) nextTracker() m.TrackerID {
	id := b.trackers
	b.trackers++

	return id
}

// add normalizes the literal into a fully initialized node: callers supply
// kind, range, surface flags and trackers; child slots are wired afterwards
// through the returned id.
func (b *treeBuilder) add(parent m.NodeID, n m.Node) m.NodeID {
	base := m.NewNode(n.Kind, n.Range)
	base.Parent = parent
	base.Negated = n.Negated
	base.PostTest = n.PostTest

	if n.Trackers != (m.TrackerSet{}) {
		base.Trackers = n.Trackers
	}

	return b.tree.Add(base)
}

func rangeOf(n *sitter.Node) m.SourceRange {
	return m.SourceRange{
		Start: m.Position{Line: int(n.StartPoint().Row), Col: int(n.StartPoint().Column)},
		End:   m.Position{Line: int(n.EndPoint().Row), Col: int(n.EndPoint().Column)},
	}
}

// buildSequence emits one decorated node per statement of a compound body.
func (b *treeBuilder) buildSequence(node *sitter.Node, parent m.NodeID) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}

		b.buildNode(child, parent)
	}
}

// buildNode dispatches on the tree-sitter node type. Constructs without
// branch semantics become generic statement nodes; their named children are
// still scanned so branch constructs in expression position are decorated.
func (b *treeBuilder) buildNode(node *sitter.Node, parent m.NodeID) m.NodeID {
	switch node.Type() {
	case "if", "unless", "elsif":
		return b.buildConditional(node, parent, node.Type() == "unless")
	case "if_modifier", "unless_modifier":
		return b.buildModifierConditional(node, parent, node.Type() == "unless_modifier")
	case "conditional":
		return b.buildTernary(node, parent)
	case "case":
		return b.buildDispatch(node, parent)
	case "while", "until":
		return b.buildLoop(node, parent, node.Type() == "until", false)
	case "while_modifier", "until_modifier":
		return b.buildModifierLoop(node, parent, node.Type() == "until_modifier")
	case "begin":
		return b.buildTryHandler(node, parent)
	case "binary":
		if kind, ok := shortCircuitKind(node); ok {
			return b.buildShortCircuit(node, parent, kind)
		}

		return b.buildGeneric(node, parent, m.KindExpression)
	case "call":
		if op := node.ChildByFieldName("operator"); op != nil && op.Type() == "&." {
			return b.buildSafeNavigation(node, parent)
		}

		return b.buildGeneric(node, parent, m.KindStatement)
	case "method", "singleton_method", "class", "module", "block", "do_block", "lambda":
		return b.buildContainer(node, parent)
	default:
		return b.buildGeneric(node, parent, m.KindStatement)
	}
}

func shortCircuitKind(node *sitter.Node) (m.NodeKind, bool) {
	op := node.ChildByFieldName("operator")
	if op == nil {
		return 0, false
	}

	switch op.Type() {
	case "&&", "and":
		return m.KindShortCircuitAnd, true
	case "||", "or":
		return m.KindShortCircuitOr, true
	default:
		return 0, false
	}
}

// buildGeneric decorates a node with no branch semantics of its own and
// recurses into its named children.
func (b *treeBuilder) buildGeneric(node *sitter.Node, parent m.NodeID, kind m.NodeKind) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     kind,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}

		if branchBearing(child) {
			b.buildNode(child, id)
		}
	}

	return id
}

// branchBearing reports whether the subtree can contain a construct the
// report cares about; plain identifier/literal subtrees are not decorated.
func branchBearing(node *sitter.Node) bool {
	switch node.Type() {
	case "identifier", "constant", "integer", "float", "string", "symbol",
		"simple_symbol", "true", "false", "nil", "instance_variable",
		"global_variable", "class_variable", "operator":
		return false
	default:
		return true
	}
}

// buildBranchBody wraps the statements of a branch slot in a tracked Body
// node. An empty slot becomes an EmptyBody whose range is the explicit
// marker just past the introducing token, skipping whitespace and comments.
func (b *treeBuilder) buildBranchBody(node *sitter.Node, parent m.NodeID, after m.Position) m.NodeID {
	if node == nil || node.NamedChildCount() == 0 {
		marker := b.src.SkipToContentStart(after)

		return b.add(parent, m.Node{
			Kind:     m.KindEmptyBody,
			Range:    m.RangeAt(marker),
			Trackers: m.ExecutionOnly(b.nextTracker()),
		})
	}

	id := b.add(parent, m.Node{
		Kind:     m.KindBody,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	b.buildSequence(node, id)

	return id
}

func (b *treeBuilder) buildExpr(node *sitter.Node, parent m.NodeID) m.NodeID {
	if node == nil {
		return m.NoNode
	}

	switch node.Type() {
	case "binary", "conditional", "call", "if", "unless", "case",
		"begin", "while", "until":
		return b.buildNode(node, parent)
	default:
		return b.buildGeneric(node, parent, m.KindExpression)
	}
}

func (b *treeBuilder) buildConditional(node *sitter.Node, parent m.NodeID, negated bool) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindConditional,
		Range:    rangeOf(node),
		Negated:  negated,
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	cond := node.ChildByFieldName("condition")
	condID := b.buildExpr(cond, id)

	condEnd := rangeOf(node).Start
	if cond != nil {
		condEnd = m.Position{Line: int(cond.EndPoint().Row), Col: int(cond.EndPoint().Column)}
	}

	consequence := node.ChildByFieldName("consequence")
	body := b.buildBranchBody(consequence, id, condEnd)

	alternative := node.ChildByFieldName("alternative")

	var elseID m.NodeID

	switch {
	case alternative == nil:
		// No else syntax at all: the builder falls back to the full
		// statement range.
		elseID = m.NoNode
	case alternative.Type() == "elsif":
		elseID = b.buildConditional(alternative, id, false)
	default:
		elseID = b.buildBranchBody(alternative, id, rangeOf(alternative).Start)
	}

	n := b.tree.Node(id)
	if negated {
		// The keyword body runs when the condition is false.
		n.Cond, n.Body, n.Else = condID, elseID, body
	} else {
		n.Cond, n.Body, n.Else = condID, body, elseID
	}

	return id
}

func (b *treeBuilder) buildModifierConditional(node *sitter.Node, parent m.NodeID, negated bool) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindConditional,
		Range:    rangeOf(node),
		Negated:  negated,
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	condID := b.buildExpr(node.ChildByFieldName("condition"), id)

	bodyTS := node.ChildByFieldName("body")

	bodyID := m.NoNode
	if bodyTS != nil {
		bodyID = b.add(id, m.Node{
			Kind:     m.KindBody,
			Range:    rangeOf(bodyTS),
			Trackers: m.ExecutionOnly(b.nextTracker()),
		})
		b.buildNode(bodyTS, bodyID)
	}

	n := b.tree.Node(id)
	n.Cond = condID

	if negated {
		n.Else = bodyID
	} else {
		n.Body = bodyID
	}

	return id
}

func (b *treeBuilder) buildTernary(node *sitter.Node, parent m.NodeID) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindConditional,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	condID := b.buildExpr(node.ChildByFieldName("condition"), id)
	thenID := b.buildBranchBodyExpr(node.ChildByFieldName("consequence"), id)
	elseID := b.buildBranchBodyExpr(node.ChildByFieldName("alternative"), id)

	n := b.tree.Node(id)
	n.Cond, n.Body, n.Else = condID, thenID, elseID

	return id
}

// buildBranchBodyExpr wraps a single-expression branch (ternary arms) in a
// tracked Body node.
func (b *treeBuilder) buildBranchBodyExpr(node *sitter.Node, parent m.NodeID) m.NodeID {
	if node == nil {
		return m.NoNode
	}

	id := b.add(parent, m.Node{
		Kind:     m.KindBody,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	if branchBearing(node) {
		b.buildNode(node, id)
	}

	return id
}

func (b *treeBuilder) buildDispatch(node *sitter.Node, parent m.NodeID) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindMultiwayDispatch,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	condID := b.buildExpr(node.ChildByFieldName("value"), id)

	var (
		arms   []m.NodeID
		elseID = m.NoNode
	)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "when":
			arms = append(arms, b.buildDispatchArm(child, id))
		case "else":
			elseID = b.buildBranchBody(child, id, rangeOf(child).Start)
		}
	}

	n := b.tree.Node(id)
	n.Cond = condID
	n.Arms = arms
	n.Else = elseID

	return id
}

func (b *treeBuilder) buildDispatchArm(node *sitter.Node, parent m.NodeID) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindDispatchArm,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	// The empty-arm marker sits just past the last pattern.
	after := rangeOf(node).Start

	var bodyTS *sitter.Node

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		if child.Type() == "then" {
			bodyTS = child
		} else {
			after = m.Position{Line: int(child.EndPoint().Row), Col: int(child.EndPoint().Column)}
		}
	}

	body := b.buildBranchBody(bodyTS, id, after)

	b.tree.Node(id).Body = body

	return id
}

func (b *treeBuilder) buildLoop(node *sitter.Node, parent m.NodeID, negated, postTest bool) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindLoop,
		Range:    rangeOf(node),
		Negated:  negated,
		PostTest: postTest,
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	condID := b.buildExpr(node.ChildByFieldName("condition"), id)

	bodyTS := node.ChildByFieldName("body")

	// An empty loop body is reported just inside the closing keyword.
	after := closingKeywordStart(node)
	body := b.buildBranchBody(bodyTS, id, after)

	n := b.tree.Node(id)
	n.Cond = condID
	n.Body = body

	return id
}

// closingKeywordStart finds the loop's end keyword, falling back to the
// construct's end position. The grammar owns the keyword either directly
// or inside the do-body child.
func closingKeywordStart(node *sitter.Node) m.Position {
	scopes := []*sitter.Node{node}
	if body := node.ChildByFieldName("body"); body != nil {
		scopes = append(scopes, body)
	}

	for _, scope := range scopes {
		for i := int(scope.ChildCount()) - 1; i >= 0; i-- {
			child := scope.Child(i)
			if child != nil && child.Type() == "end" {
				return m.Position{Line: int(child.StartPoint().Row), Col: int(child.StartPoint().Column)}
			}
		}
	}

	return m.Position{Line: int(node.EndPoint().Row), Col: int(node.EndPoint().Column)}
}

func (b *treeBuilder) buildModifierLoop(node *sitter.Node, parent m.NodeID, negated bool) m.NodeID {
	bodyTS := node.ChildByFieldName("body")

	// `begin ... end while cond` checks the condition after the body; the
	// reported body range covers the whole compound sequence.
	postTest := bodyTS != nil && bodyTS.Type() == "begin"

	id := b.add(parent, m.Node{
		Kind:     m.KindLoop,
		Range:    rangeOf(node),
		Negated:  negated,
		PostTest: postTest,
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	condID := b.buildExpr(node.ChildByFieldName("condition"), id)

	bodyID := m.NoNode
	if bodyTS != nil {
		bodyID = b.add(id, m.Node{
			Kind:     m.KindBody,
			Range:    rangeOf(bodyTS),
			Trackers: m.ExecutionOnly(b.nextTracker()),
		})

		if postTest {
			b.buildSequence(bodyTS, bodyID)
		} else {
			b.buildNode(bodyTS, bodyID)
		}
	}

	n := b.tree.Node(id)
	n.Cond = condID
	n.Body = bodyID

	return id
}

func (b *treeBuilder) buildTryHandler(node *sitter.Node, parent m.NodeID) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:  m.KindTryHandler,
		Range: rangeOf(node),
	})

	var (
		bodyID    = m.NoNode
		elseID    = m.NoNode
		finallyID = m.NoNode
		arms      []m.NodeID
		bodyStmts []*sitter.Node
	)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}

		switch child.Type() {
		case "rescue":
			if bodyID == m.NoNode && len(bodyStmts) > 0 {
				bodyID = b.buildProtectedBody(bodyStmts, id)
				bodyStmts = nil
			}

			arms = append(arms, b.buildHandlerArm(child, id))
		case "else":
			elseID = b.buildClause(child, id, m.KindElseClause)
		case "ensure":
			finallyID = b.buildClause(child, id, m.KindFinallyBlock)
		default:
			bodyStmts = append(bodyStmts, child)
		}
	}

	if bodyID == m.NoNode && len(bodyStmts) > 0 {
		bodyID = b.buildProtectedBody(bodyStmts, id)
	}

	n := b.tree.Node(id)
	n.Body = bodyID
	n.Arms = arms
	n.Else = elseID
	n.Finally = finallyID

	return id
}

// buildProtectedBody wraps the statements before the first rescue clause.
// The completion tracker observes normal fallthrough past the last
// statement, which is what makes abnormal exits derivable.
func (b *treeBuilder) buildProtectedBody(stmts []*sitter.Node, parent m.NodeID) m.NodeID {
	r := m.SourceRange{Start: rangeOf(stmts[0]).Start, End: rangeOf(stmts[len(stmts)-1]).End}

	trackers := m.ExecutionOnly(b.nextTracker())
	trackers.Completion = b.nextTracker()

	id := b.add(parent, m.Node{
		Kind:     m.KindBody,
		Range:    r,
		Trackers: trackers,
	})

	for _, s := range stmts {
		b.buildNode(s, id)
	}

	return id
}

func (b *treeBuilder) buildHandlerArm(node *sitter.Node, parent m.NodeID) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindHandlerArm,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	bodyTS := node.ChildByFieldName("body")

	bodyID := m.NoNode
	if bodyTS != nil && bodyTS.NamedChildCount() > 0 {
		bodyID = b.add(id, m.Node{
			Kind:     m.KindBody,
			Range:    rangeOf(bodyTS),
			Trackers: m.ExecutionOnly(b.nextTracker()),
		})
		b.buildSequence(bodyTS, bodyID)
	}

	b.tree.Node(id).Body = bodyID

	return id
}

func (b *treeBuilder) buildClause(node *sitter.Node, parent m.NodeID, kind m.NodeKind) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     kind,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	bodyID := m.NoNode
	if node.NamedChildCount() > 0 {
		bodyID = b.add(id, m.Node{
			Kind:     m.KindBody,
			Range:    rangeOf(node),
			Trackers: m.ExecutionOnly(b.nextTracker()),
		})
		b.buildSequence(node, bodyID)
	}

	b.tree.Node(id).Body = bodyID

	return id
}

func (b *treeBuilder) buildShortCircuit(node *sitter.Node, parent m.NodeID, kind m.NodeKind) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     kind,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	left := b.buildExpr(node.ChildByFieldName("left"), id)
	right := b.buildExpr(node.ChildByFieldName("right"), id)

	n := b.tree.Node(id)
	n.Cond = left
	n.Body = right

	return id
}

func (b *treeBuilder) buildSafeNavigation(node *sitter.Node, parent m.NodeID) m.NodeID {
	trackers := m.ExecutionOnly(b.nextTracker())
	trackers.Then = b.nextTracker()
	trackers.Else = b.nextTracker()

	id := b.add(parent, m.Node{
		Kind:     m.KindSafeNavigation,
		Range:    rangeOf(node),
		Trackers: trackers,
	})

	receiver := node.ChildByFieldName("receiver")
	receiverID := b.buildExpr(receiver, id)

	// The call branch spans from the method name to the end of the call.
	callRange := rangeOf(node)
	if method := node.ChildByFieldName("method"); method != nil {
		callRange.Start = m.Position{Line: int(method.StartPoint().Row), Col: int(method.StartPoint().Column)}
	}

	callID := b.add(id, m.Node{
		Kind:     m.KindExpression,
		Range:    callRange,
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	n := b.tree.Node(id)
	n.Cond = receiverID
	n.Body = callID

	return id
}

// buildContainer decorates method/class/block definitions: the definition
// is a statement, its body a tracked compound sequence.
func (b *treeBuilder) buildContainer(node *sitter.Node, parent m.NodeID) m.NodeID {
	id := b.add(parent, m.Node{
		Kind:     m.KindStatement,
		Range:    rangeOf(node),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	bodyTS := node.ChildByFieldName("body")
	if bodyTS == nil {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child != nil && (child.Type() == "body_statement" || child.Type() == "block_body") {
				bodyTS = child
				break
			}
		}
	}

	if bodyTS == nil || bodyTS.NamedChildCount() == 0 {
		return id
	}

	bodyID := b.add(id, m.Node{
		Kind:     m.KindBody,
		Range:    rangeOf(bodyTS),
		Trackers: m.ExecutionOnly(b.nextTracker()),
	})

	b.buildSequence(bodyTS, bodyID)

	b.tree.Node(id).Body = bodyID

	return id
}

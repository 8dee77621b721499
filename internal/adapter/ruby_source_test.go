package adapter

import (
	"testing"

	m "github.com/opencollective/deep-cover/internal/model"
)

func parseSnippet(t *testing.T, source string) (*m.Tree, int) {
	t.Helper()

	tree, trackers, err := NewTreeSitterRubyAdapter().Parse("snippet.rb", []byte(source))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	return tree, trackers
}

func nodesOfKind(tree *m.Tree, kind m.NodeKind) []m.NodeID {
	var ids []m.NodeID

	for i := range tree.Nodes {
		if tree.Nodes[i].Kind == kind {
			ids = append(ids, m.NodeID(i))
		}
	}

	return ids
}

func TestParseIfElse(t *testing.T) {
	tree, trackers := parseSnippet(t, "if a\n  b\nelse\n  c\nend\n")

	if tree.Node(tree.Root).Kind != m.KindRoot {
		t.Fatalf("root kind = %s", tree.Node(tree.Root).Kind)
	}

	if trackers < 3 {
		t.Fatalf("tracker count = %d, want at least root, conditional and branches", trackers)
	}

	conds := nodesOfKind(tree, m.KindConditional)
	if len(conds) != 1 {
		t.Fatalf("conditional count = %d, want 1", len(conds))
	}

	n := tree.Node(conds[0])
	if !n.Cond.Valid() || !n.Body.Valid() || !n.Else.Valid() {
		t.Fatalf("conditional slots = %+v, want condition and both branches", n)
	}

	if n.Negated {
		t.Fatal("plain if should not be negated")
	}
}

func TestParseUnlessIsNegated(t *testing.T) {
	tree, _ := parseSnippet(t, "unless a\n  b\nend\n")

	conds := nodesOfKind(tree, m.KindConditional)
	if len(conds) != 1 {
		t.Fatalf("conditional count = %d, want 1", len(conds))
	}

	n := tree.Node(conds[0])
	if !n.Negated {
		t.Fatal("unless should be negated")
	}

	// The keyword body is the falsy path.
	if !n.Else.Valid() {
		t.Fatal("unless body should land in the else slot")
	}
}

func TestParseElsifChainFolds(t *testing.T) {
	tree, _ := parseSnippet(t, "if a\n  b\nelsif c\n  d\nend\n")

	conds := nodesOfKind(tree, m.KindConditional)
	if len(conds) != 2 {
		t.Fatalf("conditional count = %d, want outer and folded elsif", len(conds))
	}

	outer := tree.Node(conds[0])
	if outer.Else != conds[1] {
		t.Fatalf("elsif should fold into the outer else slot, got %d", outer.Else)
	}
}

func TestParseModifierIf(t *testing.T) {
	tree, _ := parseSnippet(t, "b if a\n")

	conds := nodesOfKind(tree, m.KindConditional)
	if len(conds) != 1 {
		t.Fatalf("conditional count = %d, want 1", len(conds))
	}

	n := tree.Node(conds[0])
	if !n.Body.Valid() || n.Else.Valid() {
		t.Fatalf("modifier if slots = %+v, want body only", n)
	}
}

func TestParseTernary(t *testing.T) {
	tree, _ := parseSnippet(t, "x = a ? b : c\n")

	conds := nodesOfKind(tree, m.KindConditional)
	if len(conds) != 1 {
		t.Fatalf("conditional count = %d, want 1", len(conds))
	}

	n := tree.Node(conds[0])
	if !n.Body.Valid() || !n.Else.Valid() {
		t.Fatalf("ternary slots = %+v, want both arms", n)
	}
}

func TestParseCaseArms(t *testing.T) {
	tree, _ := parseSnippet(t, "case x\nwhen 1 then a\nwhen 2 then b\nelse c\nend\n")

	dispatches := nodesOfKind(tree, m.KindMultiwayDispatch)
	if len(dispatches) != 1 {
		t.Fatalf("dispatch count = %d, want 1", len(dispatches))
	}

	n := tree.Node(dispatches[0])
	if len(n.Arms) != 2 {
		t.Fatalf("arm count = %d, want 2", len(n.Arms))
	}

	if !n.Cond.Valid() || !n.Else.Valid() {
		t.Fatalf("dispatch slots = %+v, want subject and else", n)
	}
}

func TestParseWhileLoop(t *testing.T) {
	tree, _ := parseSnippet(t, "while a\n  b\nend\n")

	loops := nodesOfKind(tree, m.KindLoop)
	if len(loops) != 1 {
		t.Fatalf("loop count = %d, want 1", len(loops))
	}

	n := tree.Node(loops[0])
	if n.Negated {
		t.Fatal("while should not be negated")
	}

	if !n.Cond.Valid() || !n.Body.Valid() {
		t.Fatalf("loop slots = %+v", n)
	}
}

func TestParseUntilModifier(t *testing.T) {
	tree, _ := parseSnippet(t, "a += 1 until done\n")

	loops := nodesOfKind(tree, m.KindLoop)
	if len(loops) != 1 {
		t.Fatalf("loop count = %d, want 1", len(loops))
	}

	if !tree.Node(loops[0]).Negated {
		t.Fatal("until should be negated")
	}
}

func TestParseEmptyLoopBodyMarker(t *testing.T) {
	tree, _ := parseSnippet(t, "while a\nend\n")

	loops := nodesOfKind(tree, m.KindLoop)
	if len(loops) != 1 {
		t.Fatalf("loop count = %d, want 1", len(loops))
	}

	body := tree.Node(loops[0]).Body
	if !body.Valid() {
		t.Fatal("empty loop body should still be materialized")
	}

	bn := tree.Node(body)
	if bn.Kind != m.KindEmptyBody {
		t.Fatalf("empty loop body kind = %s, want empty_body", bn.Kind)
	}

	if !bn.Range.Empty() {
		t.Fatalf("empty body range = %+v, want zero-width marker", bn.Range)
	}
}

func TestParseShortCircuits(t *testing.T) {
	tree, _ := parseSnippet(t, "a && b\nc || d\n")

	ands := nodesOfKind(tree, m.KindShortCircuitAnd)
	ors := nodesOfKind(tree, m.KindShortCircuitOr)

	if len(ands) != 1 || len(ors) != 1 {
		t.Fatalf("short-circuit counts = %d and, %d or, want 1 each", len(ands), len(ors))
	}

	for _, id := range append(ands, ors...) {
		n := tree.Node(id)
		if !n.Cond.Valid() || !n.Body.Valid() {
			t.Fatalf("%s slots = %+v, want both operands", n.Kind, n)
		}
	}
}

func TestParseSafeNavigation(t *testing.T) {
	tree, _ := parseSnippet(t, "user&.name\n")

	navs := nodesOfKind(tree, m.KindSafeNavigation)
	if len(navs) != 1 {
		t.Fatalf("safe navigation count = %d, want 1", len(navs))
	}

	n := tree.Node(navs[0])
	if !n.Trackers.Then.Valid() || !n.Trackers.Else.Valid() {
		t.Fatalf("safe navigation trackers = %+v, want outcome trackers", n.Trackers)
	}
}

func TestParseRescueShape(t *testing.T) {
	tree, _ := parseSnippet(t, "begin\n  a\nrescue KeyError\n  b\nelse\n  c\nensure\n  d\nend\n")

	tries := nodesOfKind(tree, m.KindTryHandler)
	if len(tries) != 1 {
		t.Fatalf("try handler count = %d, want 1", len(tries))
	}

	n := tree.Node(tries[0])
	if !n.Body.Valid() || len(n.Arms) != 1 || !n.Else.Valid() || !n.Finally.Valid() {
		t.Fatalf("try handler slots = %+v", n)
	}

	body := tree.Node(n.Body)
	if !body.Trackers.Execution.Valid() || !body.Trackers.Completion.Valid() {
		t.Fatalf("protected body trackers = %+v, want entry and completion", body.Trackers)
	}
}

func TestParseTrackerIdsAreDeterministic(t *testing.T) {
	source := "if a\n  b\nend\nwhile c\n  d\nend\n"

	first, firstCount := parseSnippet(t, source)
	second, secondCount := parseSnippet(t, source)

	if firstCount != secondCount {
		t.Fatalf("tracker counts differ: %d vs %d", firstCount, secondCount)
	}

	if len(first.Nodes) != len(second.Nodes) {
		t.Fatalf("node counts differ: %d vs %d", len(first.Nodes), len(second.Nodes))
	}

	for i := range first.Nodes {
		if first.Nodes[i].Trackers != second.Nodes[i].Trackers {
			t.Fatalf("node %d trackers differ across parses", i)
		}
	}
}

func TestParseSyntaxErrorStillBuilds(t *testing.T) {
	// tree-sitter produces a tree with error nodes rather than failing;
	// the adapter reports whatever structure it can recover.
	tree, _ := parseSnippet(t, "if a\n")

	if tree == nil || len(tree.Nodes) == 0 {
		t.Fatal("adapter should build a tree even for incomplete input")
	}
}

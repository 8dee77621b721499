package domain

import (
	"testing"

	m "github.com/opencollective/deep-cover/internal/model"
)

func span(startLine, startCol, endLine, endCol int) m.SourceRange {
	return m.SourceRange{
		Start: m.Position{Line: startLine, Col: startCol},
		End:   m.Position{Line: endLine, Col: endCol},
	}
}

func newTestTree(file m.Path) *m.Tree {
	tree := &m.Tree{File: file}
	root := m.NewNode(m.KindRoot, span(0, 0, 30, 0))
	root.Trackers = m.ExecutionOnly(0)
	tree.Root = tree.Add(root)

	return tree
}

func addNode(tree *m.Tree, parent m.NodeID, kind m.NodeKind, r m.SourceRange, tracker m.TrackerID) m.NodeID {
	n := m.NewNode(kind, r)
	n.Parent = parent

	if tracker.Valid() {
		n.Trackers = m.ExecutionOnly(tracker)
	}

	return tree.Add(n)
}

// addConditional wires a tracked conditional with tracked then/else bodies
// and returns the conditional's id.
func addConditional(tree *m.Tree, parent m.NodeID, line int, condTracker, thenTracker, elseTracker m.TrackerID) m.NodeID {
	cond := addNode(tree, parent, m.KindConditional, span(line, 0, line+4, 3), condTracker)

	pred := addNode(tree, cond, m.KindExpression, span(line, 3, line, 8), m.NoTracker)
	tree.Node(cond).Cond = pred

	then := addNode(tree, cond, m.KindBody, span(line+1, 2, line+1, 9), thenTracker)
	tree.Node(cond).Body = then

	alt := addNode(tree, cond, m.KindBody, span(line+3, 2, line+3, 9), elseTracker)
	tree.Node(cond).Else = alt

	return cond
}

func TestDemoteUncoveredBranchZeroesRun(t *testing.T) {
	tree := newTestTree("demote.rb")
	addConditional(tree, tree.Root, 1, 1, 2, 3)

	// Condition always truthy: else branch never ran.
	store := m.MapStore{0: 5, 1: 5, 2: 5, 3: 0}

	report, err := NewDeriver().Derive(tree, store)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if len(report.Runs) != 1 {
		t.Fatalf("run count = %d, want 1", len(report.Runs))
	}

	run := report.Runs[0]
	if run.Count != 0 {
		t.Fatalf("demoted run = %d, want 0", run.Count)
	}

	if run.LocationID != report.Branches[0].Condition.LocationID {
		t.Fatalf("run keyed by %d, want condition id %d",
			run.LocationID, report.Branches[0].Condition.LocationID)
	}
}

func TestFullyCoveredBranchKeepsRawRun(t *testing.T) {
	tree := newTestTree("covered.rb")
	addConditional(tree, tree.Root, 1, 1, 2, 3)

	store := m.MapStore{0: 5, 1: 5, 2: 3, 3: 2}

	report, err := NewDeriver().Derive(tree, store)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if got := report.Runs[0].Count; got != 5 {
		t.Fatalf("run = %d, want raw 5", got)
	}
}

func TestDemotionPropagatesThroughNesting(t *testing.T) {
	tree := newTestTree("nested.rb")

	outer := addConditional(tree, tree.Root, 1, 1, 2, 3)

	// An inner conditional inside the outer then body with an uncovered
	// else branch.
	thenBody := tree.Node(outer).Body
	addConditional(tree, thenBody, 2, 4, 5, 6)

	store := m.MapStore{
		0: 6,
		1: 6, 2: 4, 3: 2, // outer: both branches covered
		4: 4, 5: 4, 6: 0, // inner: else never ran
	}

	report, err := NewDeriver().Derive(tree, store)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if len(report.Runs) != 2 {
		t.Fatalf("run count = %d, want 2", len(report.Runs))
	}

	// Pre-order: outer first, inner second. Both demote to the inner
	// uncovered branch's count.
	if report.Runs[0].Count != 0 {
		t.Fatalf("outer run = %d, want demoted 0", report.Runs[0].Count)
	}

	if report.Runs[1].Count != 0 {
		t.Fatalf("inner run = %d, want demoted 0", report.Runs[1].Count)
	}
}

func TestNeverExecutedKeepsZeroWithoutDemotion(t *testing.T) {
	tree := newTestTree("dead.rb")
	addConditional(tree, tree.Root, 1, 1, 2, 3)

	store := m.MapStore{0: 0}

	report, err := NewDeriver().Derive(tree, store)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if got := report.Runs[0].Count; got != 0 {
		t.Fatalf("run = %d, want 0", got)
	}
}

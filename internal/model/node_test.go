package model

import "testing"

func buildFlatTree(t *testing.T, children int) (*Tree, []NodeID) {
	t.Helper()

	tree := &Tree{File: "test.rb"}
	root := tree.Add(NewNode(KindRoot, SourceRange{}))
	tree.Root = root

	ids := make([]NodeID, 0, children)
	for i := 0; i < children; i++ {
		n := NewNode(KindStatement, SourceRange{Start: Position{Line: i}})
		n.Parent = root
		ids = append(ids, tree.Add(n))
	}

	return tree, ids
}

func TestTreeSiblingLookups(t *testing.T) {
	tree, ids := buildFlatTree(t, 3)

	if got := tree.PrevSibling(ids[0]); got != NoNode {
		t.Fatalf("PrevSibling(first) = %d, want NoNode", got)
	}

	if got := tree.PrevSibling(ids[2]); got != ids[1] {
		t.Fatalf("PrevSibling(last) = %d, want %d", got, ids[1])
	}

	if got := tree.NextSibling(ids[1]); got != ids[2] {
		t.Fatalf("NextSibling(middle) = %d, want %d", got, ids[2])
	}

	if got := tree.NextSibling(ids[2]); got != NoNode {
		t.Fatalf("NextSibling(last) = %d, want NoNode", got)
	}

	if got := tree.PrevSibling(tree.Root); got != NoNode {
		t.Fatalf("PrevSibling(root) = %d, want NoNode", got)
	}
}

func TestNewNodeSlotsEmpty(t *testing.T) {
	n := NewNode(KindConditional, SourceRange{})

	for name, id := range map[string]NodeID{
		"Parent":  n.Parent,
		"Cond":    n.Cond,
		"Body":    n.Body,
		"Else":    n.Else,
		"Finally": n.Finally,
	} {
		if id.Valid() {
			t.Fatalf("%s slot of a fresh node should be NoNode, got %d", name, id)
		}
	}

	if n.Trackers != NoTrackers {
		t.Fatalf("fresh node should carry no trackers, got %+v", n.Trackers)
	}
}

func TestNodeKindBranching(t *testing.T) {
	branching := []NodeKind{
		KindConditional, KindMultiwayDispatch, KindShortCircuitAnd,
		KindShortCircuitOr, KindSafeNavigation, KindLoop,
	}
	for _, k := range branching {
		if !k.Branching() {
			t.Fatalf("%s should be branching", k)
		}
	}

	plain := []NodeKind{KindRoot, KindStatement, KindBody, KindTryHandler, KindHandlerArm}
	for _, k := range plain {
		if k.Branching() {
			t.Fatalf("%s should not be branching", k)
		}
	}
}

func TestMapStoreHits(t *testing.T) {
	store := MapStore{3: 7}

	if got := store.Hits(3); got != 7 {
		t.Fatalf("Hits(3) = %d, want 7", got)
	}

	if got := store.Hits(99); got != 0 {
		t.Fatalf("Hits(missing) = %d, want 0", got)
	}

	if got := store.Hits(NoTracker); got != 0 {
		t.Fatalf("Hits(NoTracker) = %d, want 0", got)
	}
}

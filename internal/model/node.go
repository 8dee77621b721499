// Package model defines the data structures for branch-coverage derivation.
package model

// NodeKind identifies the syntactic category of a tree node.
type NodeKind int

const (
	// KindRoot is the top-level program node.
	KindRoot NodeKind = iota

	// KindStatement is a generic statement with no branch semantics.
	KindStatement

	// KindExpression is a generic expression with no branch semantics.
	KindExpression

	// KindBody is a compound sequence of statements.
	KindBody

	// KindEmptyBody marks a branch slot that is syntactically present but
	// holds no statements. Its range is the explicit-empty marker computed
	// by the frontend (position just past the introducing token, skipping
	// whitespace and comments).
	KindEmptyBody

	// KindConditional covers if/unless in all surface forms, including
	// ternaries and statement modifiers. Elsif chains are folded into the
	// else slot as nested conditionals.
	KindConditional

	// KindMultiwayDispatch is a case/when construct.
	KindMultiwayDispatch

	// KindDispatchArm is a single when clause of a dispatch.
	KindDispatchArm

	// KindShortCircuitAnd is a conjunction (&&, and).
	KindShortCircuitAnd

	// KindShortCircuitOr is a disjunction (||, or).
	KindShortCircuitOr

	// KindSafeNavigation is a &. call.
	KindSafeNavigation

	// KindLoop covers while/until loops, pre-test and post-test forms.
	KindLoop

	// KindTryHandler is a begin/rescue/else/ensure construct.
	KindTryHandler

	// KindHandlerArm is a single rescue clause.
	KindHandlerArm

	// KindElseClause is the else clause of a try handler.
	KindElseClause

	// KindFinallyBlock is an ensure clause.
	KindFinallyBlock
)

// String returns the lowercase name used in logs and list output.
func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindStatement:
		return "statement"
	case KindExpression:
		return "expression"
	case KindBody:
		return "body"
	case KindEmptyBody:
		return "empty_body"
	case KindConditional:
		return "conditional"
	case KindMultiwayDispatch:
		return "dispatch"
	case KindDispatchArm:
		return "dispatch_arm"
	case KindShortCircuitAnd:
		return "and"
	case KindShortCircuitOr:
		return "or"
	case KindSafeNavigation:
		return "safe_navigation"
	case KindLoop:
		return "loop"
	case KindTryHandler:
		return "try_handler"
	case KindHandlerArm:
		return "handler_arm"
	case KindElseClause:
		return "else_clause"
	case KindFinallyBlock:
		return "finally_block"
	default:
		return "unknown"
	}
}

// Branching reports whether nodes of this kind produce a branch record.
func (k NodeKind) Branching() bool {
	switch k {
	case KindConditional, KindMultiwayDispatch, KindShortCircuitAnd,
		KindShortCircuitOr, KindSafeNavigation, KindLoop:
		return true
	default:
		return false
	}
}

// NodeID indexes a node within its owning Tree. Nodes reference each other
// by id rather than by pointer so sibling and parent lookups stay O(1)
// without reference cycles.
type NodeID int32

// NoNode marks an absent child slot.
const NoNode NodeID = -1

// Valid reports whether the id refers to a real node.
func (id NodeID) Valid() bool { return id != NoNode }

// Node is one immutable element of a decorated tree. Kind-specific child
// slots are ids into the owning arena; unused slots hold NoNode.
type Node struct {
	Kind   NodeKind
	Range  SourceRange
	Parent NodeID

	// Children lists every child in source order, mirroring the slot
	// fields below. Sibling lookups go through this slice.
	Children []NodeID

	// Cond is the condition of a conditional or loop, the subject
	// expression of a dispatch, the left operand of a short-circuit, or
	// the receiver of a safe-navigation call.
	Cond NodeID

	// Body is the then-branch of a conditional, the loop body, the
	// protected body of a try handler, the body of an arm, or the right
	// operand of a short-circuit.
	Body NodeID

	// Else is the else-branch of a conditional, the written default arm
	// of a dispatch, or the else clause of a try handler.
	Else NodeID

	// Finally is the ensure clause of a try handler.
	Finally NodeID

	// Arms are the when clauses of a dispatch or the rescue clauses of a
	// try handler, in source order.
	Arms []NodeID

	// Negated marks the unless/until surface forms.
	Negated bool

	// PostTest marks a loop whose condition is checked after the body.
	PostTest bool

	Trackers TrackerSet
}

// NewNode returns a node of the given kind with every child slot empty and
// no trackers bound.
func NewNode(kind NodeKind, r SourceRange) Node {
	return Node{
		Kind:     kind,
		Range:    r,
		Parent:   NoNode,
		Cond:     NoNode,
		Body:     NoNode,
		Else:     NoNode,
		Finally:  NoNode,
		Trackers: NoTrackers,
	}
}

// Tree is an arena-owned decorated AST for a single compiled unit. It is
// built once by a frontend and never mutated afterwards.
type Tree struct {
	Nodes []Node
	Root  NodeID
	File  Path
}

// Node returns the node stored at id. The id must be valid.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// PrevSibling returns the child preceding id under its parent, or NoNode
// when id is the first child or has no parent.
func (t *Tree) PrevSibling(id NodeID) NodeID {
	parent := t.Nodes[id].Parent
	if !parent.Valid() {
		return NoNode
	}

	siblings := t.Nodes[parent].Children
	for i, c := range siblings {
		if c == id {
			if i == 0 {
				return NoNode
			}

			return siblings[i-1]
		}
	}

	return NoNode
}

// NextSibling returns the child following id under its parent, or NoNode.
func (t *Tree) NextSibling(id NodeID) NodeID {
	parent := t.Nodes[id].Parent
	if !parent.Valid() {
		return NoNode
	}

	siblings := t.Nodes[parent].Children
	for i, c := range siblings {
		if c == id && i+1 < len(siblings) {
			return siblings[i+1]
		}
	}

	return NoNode
}

// Add appends a node to the arena, links it to its parent's child list and
// returns its id. Slot fields are wired by the caller afterwards.
func (t *Tree) Add(n Node) NodeID {
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, n)

	if n.Parent.Valid() {
		parent := &t.Nodes[n.Parent]
		parent.Children = append(parent.Children, id)
	}

	return id
}

// Package flow derives execution, flow-entry and flow-completion counts for
// every node of a decorated tree from raw tracker hits and child/sibling
// relationships.
package flow

import (
	"errors"
	"fmt"

	m "github.com/opencollective/deep-cover/internal/model"
)

// ErrNegativeCount reports a derived count below zero, which indicates lost
// or torn counter increments in the instrumentation layer.
var ErrNegativeCount = errors.New("negative derived count")

// Model computes the three derived metrics for one tree against one counter
// snapshot. Results are memoized; a Model is owned by a single derivation
// pass and is not safe for concurrent use.
type Model struct {
	tree  *m.Tree
	store m.CounterStore

	exec  map[m.NodeID]int64
	entry map[m.NodeID]int64
	comp  map[m.NodeID]int64

	err error
}

// New builds a Model over tree and store.
func New(tree *m.Tree, store m.CounterStore) *Model {
	return &Model{
		tree:  tree,
		store: store,
		exec:  make(map[m.NodeID]int64),
		entry: make(map[m.NodeID]int64),
		comp:  make(map[m.NodeID]int64),
	}
}

// Err returns the first counter defect observed while deriving metrics, or
// nil. Callers check it once after the pass.
func (md *Model) Err() error { return md.err }

// Hits exposes the raw counter for rules that read a tracker directly.
func (md *Model) Hits(id m.TrackerID) int64 { return md.store.Hits(id) }

func (md *Model) fail(id m.NodeID, metric string, value int64) {
	if md.err == nil {
		n := md.tree.Node(id)
		md.err = fmt.Errorf("%w: %s of %s node at line %d is %d",
			ErrNegativeCount, metric, n.Kind, n.Range.Start.Line, value)
	}
}

// ExecutionCount is the number of times control reached the start of id.
func (md *Model) ExecutionCount(id m.NodeID) int64 {
	if v, ok := md.exec[id]; ok {
		return v
	}

	// Seed before recursing so degenerate trees cannot loop.
	md.exec[id] = 0
	v := md.executionCount(id)

	if v < 0 {
		md.fail(id, "execution count", v)
		v = 0
	}

	md.exec[id] = v

	return v
}

func (md *Model) executionCount(id m.NodeID) int64 {
	n := md.tree.Node(id)

	if n.Trackers.Execution.Valid() {
		return md.store.Hits(n.Trackers.Execution)
	}

	switch n.Kind {
	case m.KindTryHandler:
		// Reached only when the protected body completes; without a
		// body the construct is its own entry point.
		if n.Body.Valid() {
			return md.FlowCompletionCount(n.Body)
		}

		return md.FlowEntryCount(id)
	default:
		return md.FlowEntryCount(id)
	}
}

// FlowEntryCount is the number of times control entered id from a
// predecessor.
func (md *Model) FlowEntryCount(id m.NodeID) int64 {
	if v, ok := md.entry[id]; ok {
		return v
	}

	md.entry[id] = 0
	v := md.flowEntryCount(id)

	if v < 0 {
		md.fail(id, "flow entry count", v)
		v = 0
	}

	md.entry[id] = v

	return v
}

func (md *Model) flowEntryCount(id m.NodeID) int64 {
	n := md.tree.Node(id)

	if !n.Parent.Valid() {
		// The root's entered tracker is placed by the frontend; a tree
		// with no counters at all derives everything to zero.
		if n.Trackers.Execution.Valid() {
			return md.store.Hits(n.Trackers.Execution)
		}

		return 0
	}

	parent := md.tree.Node(n.Parent)

	switch parent.Kind {
	case m.KindRoot, m.KindBody:
		// Linear fallthrough: a statement is entered as often as its
		// previous sibling completed.
		if prev := md.tree.PrevSibling(id); prev.Valid() {
			return md.FlowCompletionCount(prev)
		}

		return md.FlowEntryCount(n.Parent)

	case m.KindTryHandler:
		switch id {
		case parent.Body, parent.Finally:
			// The protected body is entered with the construct; a
			// finally block shares the guarded body's entry count
			// regardless of how the construct exits.
			return md.FlowEntryCount(n.Parent)
		case parent.Else:
			return md.flowCompletionOrEntry(parent.Body, n.Parent)
		default:
			// Handler arms: the entered-body tracker is
			// authoritative.
			return md.ExecutionCount(id)
		}

	case m.KindConditional, m.KindLoop, m.KindMultiwayDispatch:
		if id == parent.Cond {
			return md.ExecutionCount(n.Parent)
		}

		// Branch slots and arms carry their own counters.
		return md.ExecutionCount(id)

	default:
		return md.ExecutionCount(id)
	}
}

func (md *Model) flowCompletionOrEntry(body, construct m.NodeID) int64 {
	if body.Valid() {
		return md.FlowCompletionCount(body)
	}

	return md.FlowEntryCount(construct)
}

// FlowCompletionCount is the number of times id completed by normal
// fallthrough rather than a non-local transfer.
func (md *Model) FlowCompletionCount(id m.NodeID) int64 {
	if v, ok := md.comp[id]; ok {
		return v
	}

	md.comp[id] = 0
	v := md.flowCompletionCount(id)

	if v < 0 {
		md.fail(id, "flow completion count", v)
		v = 0
	}

	md.comp[id] = v

	return v
}

func (md *Model) flowCompletionCount(id m.NodeID) int64 {
	n := md.tree.Node(id)

	// An injected end-of-body tracker observes fallthrough directly and
	// wins over any derivation.
	if n.Trackers.Completion.Valid() {
		return md.store.Hits(n.Trackers.Completion)
	}

	switch n.Kind {
	case m.KindRoot, m.KindBody:
		if len(n.Children) == 0 {
			return md.FlowEntryCount(id)
		}

		return md.FlowCompletionCount(n.Children[len(n.Children)-1])

	case m.KindEmptyBody:
		return md.FlowEntryCount(id)

	case m.KindTryHandler:
		if !n.Body.Valid() {
			return md.FlowEntryCount(id)
		}

		total := int64(0)
		for _, arm := range n.Arms {
			total += md.FlowCompletionCount(arm)
		}

		if n.Else.Valid() {
			total += md.FlowCompletionCount(n.Else)
		} else {
			total += md.FlowCompletionCount(n.Body)
		}

		return total

	case m.KindHandlerArm, m.KindElseClause:
		// An empty body always completes once entered.
		if n.Body.Valid() {
			return md.FlowCompletionCount(n.Body)
		}

		return md.ExecutionCount(id)

	case m.KindFinallyBlock:
		if parent := n.Parent; parent.Valid() {
			if guarded := md.tree.Node(parent).Body; guarded.Valid() {
				return md.FlowCompletionCount(guarded)
			}
		}

		if n.Body.Valid() {
			return md.FlowCompletionCount(n.Body)
		}

		return md.FlowEntryCount(id)

	case m.KindStatement, m.KindExpression:
		// When the statement after this one observed its own entry,
		// that observation is this node's completion.
		if next := md.tree.NextSibling(id); next.Valid() {
			if md.tree.Node(next).Trackers.Execution.Valid() {
				return md.ExecutionCount(next)
			}
		}

		return md.ExecutionCount(id)

	default:
		// Conditionals, loops, dispatches and the expression forms are
		// single-entry, single-exit at statement level; deviations
		// inside them are accounted for by the enclosing try handler.
		return md.ExecutionCount(id)
	}
}

// ArmGroupEntry derives how many times control transferred into the handler
// arms of a try construct. It exists for diagnostics and assertions only;
// per-arm entered trackers remain authoritative for arm execution counts.
func (md *Model) ArmGroupEntry(arm m.NodeID) int64 {
	n := md.tree.Node(arm)
	if !n.Parent.Valid() {
		return md.ExecutionCount(arm)
	}

	construct := md.tree.Node(n.Parent)

	if prev := md.tree.PrevSibling(arm); prev.Valid() && prev == construct.Body {
		// Abnormal exits from the protected body that were not
		// absorbed by normal completion.
		v := md.FlowEntryCount(prev) - md.FlowCompletionCount(prev)
		if v < 0 {
			md.fail(arm, "arm group entry", v)
			return 0
		}

		return v
	}

	if !construct.Body.Valid() {
		return md.FlowEntryCount(n.Parent)
	}

	// Later arms depend on exception-class matching, which is outside
	// this model; report the arm's own observed count.
	return md.ExecutionCount(arm)
}

// Package branches derives branch records, one rule per control-flow node
// kind, reproducing the reference runtime's report shape field for field.
package branches

import (
	"errors"
	"fmt"

	"github.com/opencollective/deep-cover/internal/domain/flow"
	m "github.com/opencollective/deep-cover/internal/model"
)

// ErrMissingChild reports a branch rule invoked on a node missing a child
// slot its kind guarantees, which indicates an upstream tree-construction
// defect.
var ErrMissingChild = errors.New("required child slot absent")

// Pass carries the state of one derivation pass: the tree under report, its
// flow model, and the traversal-scoped location counter. A Pass is never
// shared across derivations or goroutines.
type Pass struct {
	Tree *m.Tree
	Flow *flow.Model

	nextLoc int
}

// NewPass starts a derivation pass over tree with counts from store.
func NewPass(tree *m.Tree, store m.CounterStore) *Pass {
	return &Pass{Tree: tree, Flow: flow.New(tree, store)}
}

// nextLocation hands out location ids strictly in descriptor creation
// order, so repeated passes over the same inputs are byte-identical.
func (p *Pass) nextLocation() int {
	id := p.nextLoc
	p.nextLoc++

	return id
}

func (p *Pass) descriptor(tag string, r m.SourceRange) m.Descriptor {
	return m.DescriptorAt(tag, p.nextLocation(), r)
}

func (p *Pass) hits(id m.TrackerID) int64 {
	return p.Flow.Hits(id)
}

// Build derives the branch record for id. The second return is false for
// node kinds that do not branch; those are excluded from the report rather
// than treated as errors.
func (p *Pass) Build(id m.NodeID) (m.BranchRecord, bool, error) {
	var (
		rec m.BranchRecord
		err error
	)

	switch p.Tree.Node(id).Kind {
	case m.KindConditional:
		rec, err = p.buildConditional(id)
	case m.KindMultiwayDispatch:
		rec, err = p.buildDispatch(id)
	case m.KindShortCircuitAnd, m.KindShortCircuitOr:
		rec, err = p.buildShortCircuit(id)
	case m.KindSafeNavigation:
		rec, err = p.buildSafeNavigation(id)
	case m.KindLoop:
		rec, err = p.buildLoop(id)
	default:
		return m.BranchRecord{}, false, nil
	}

	if err != nil {
		return m.BranchRecord{}, false, err
	}

	rec.Node = id

	return rec, true, nil
}

func (p *Pass) missingChild(id m.NodeID, slot string) error {
	n := p.Tree.Node(id)

	return fmt.Errorf("%w: %s node at line %d has no %s",
		ErrMissingChild, n.Kind, n.Range.Start.Line, slot)
}

func (p *Pass) negative(id m.NodeID, what string, v int64) error {
	n := p.Tree.Node(id)

	return fmt.Errorf("%w: %s of %s node at line %d is %d",
		flow.ErrNegativeCount, what, n.Kind, n.Range.Start.Line, v)
}

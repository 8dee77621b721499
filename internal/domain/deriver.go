// Package domain contains the core branch-coverage derivation workflow and
// logic.
package domain

import (
	m "github.com/opencollective/deep-cover/internal/model"

	"github.com/opencollective/deep-cover/internal/domain/branches"
)

// Deriver runs one read-only derivation pass over a decorated tree and a
// final counter snapshot, producing the complete report for that unit.
type Deriver interface {
	Derive(tree *m.Tree, store m.CounterStore) (m.FileReport, error)
}

type deriver struct{}

// NewDeriver creates a Deriver. It holds no state; every Derive call owns
// its own pass-scoped location counter and memo tables.
func NewDeriver() Deriver {
	return &deriver{}
}

// Derive visits every node in pre-order, collects branch records for the
// branching kinds, then applies the demotion policy as a second phase over
// the same tree. Unknown node kinds are skipped, missing counters read as
// zero; only construction and instrumentation defects surface as errors.
func (d *deriver) Derive(tree *m.Tree, store m.CounterStore) (m.FileReport, error) {
	pass := branches.NewPass(tree, store)

	var records []m.BranchRecord

	var walk func(id m.NodeID) error
	walk = func(id m.NodeID) error {
		rec, ok, err := pass.Build(id)
		if err != nil {
			return err
		}

		if ok {
			records = append(records, rec)
		}

		for _, child := range tree.Node(id).Children {
			if err := walk(child); err != nil {
				return err
			}
		}

		return nil
	}

	if err := walk(tree.Root); err != nil {
		return m.FileReport{}, err
	}

	if err := pass.Flow.Err(); err != nil {
		return m.FileReport{}, err
	}

	runs := demoteRuns(tree, pass.Flow, records)

	return m.FileReport{
		File:     tree.File,
		Branches: records,
		Runs:     runs,
	}, nil
}

package domain

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/opencollective/deep-cover/internal/adapter"
	m "github.com/opencollective/deep-cover/internal/model"
)

// ReportArgs contains the arguments for deriving branch coverage reports.
type ReportArgs struct {
	Paths    []m.Path
	Exclude  []string
	Counters m.Path
	Output   m.Path
	Workers  uint
}

// Workflow defines the interface for the coverage derivation workflow.
type Workflow interface {
	Report(args ReportArgs) ([]m.FileReport, error)
	Inventory(paths []m.Path, exclude []string) ([]m.Path, error)
	View(reports m.Path) ([]m.FileReport, error)
	MergeCounters(inputs []m.Path, output m.Path) error
	Diff(before m.Path, after m.Path) (string, error)

	// RenderYAML produces the canonical textual form of a report set.
	RenderYAML(reports []m.FileReport) ([]byte, error)
}

type workflow struct {
	adapter.SourceFSAdapter
	adapter.RubySourceAdapter
	adapter.CounterSnapshotAdapter
	adapter.ReportStore
	Deriver
}

// NewWorkflow creates a new Workflow instance with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	rubyAdapter adapter.RubySourceAdapter,
	counterAdapter adapter.CounterSnapshotAdapter,
	reportStore adapter.ReportStore,
	deriver Deriver,
) Workflow {
	return &workflow{
		SourceFSAdapter:        fsAdapter,
		RubySourceAdapter:      rubyAdapter,
		CounterSnapshotAdapter: counterAdapter,
		ReportStore:            reportStore,
		Deriver:                deriver,
	}
}

// Inventory lists the source files a Report call would analyze.
func (w *workflow) Inventory(paths []m.Path, exclude []string) ([]m.Path, error) {
	sources, err := w.ScanRubySources(paths, exclude)
	if err != nil {
		return nil, fmt.Errorf("scan sources: %w", err)
	}

	return sources, nil
}

// Report scans sources, derives per-file branch coverage against the counter
// snapshot, and saves the combined report when an output path is set. Files
// are derived concurrently but the returned reports keep scan order.
func (w *workflow) Report(args ReportArgs) ([]m.FileReport, error) {
	sources, err := w.ScanRubySources(args.Paths, args.Exclude)
	if err != nil {
		return nil, fmt.Errorf("scan sources: %w", err)
	}

	store, err := w.Load(args.Counters)
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}

	reports, err := w.deriveAll(sources, store, args.Workers)
	if err != nil {
		return nil, err
	}

	if args.Output != "" {
		if err := w.SaveReports(args.Output, reports); err != nil {
			return nil, fmt.Errorf("save reports: %w", err)
		}
	}

	return reports, nil
}

func (w *workflow) deriveAll(sources []m.Path, store m.CounterStore, workers uint) ([]m.FileReport, error) {
	reports := make([]m.FileReport, len(sources))
	errors := []error{}

	var errorsMutex sync.Mutex

	var group errgroup.Group
	if workers > 0 {
		group.SetLimit(int(workers))
	}

	for i, source := range sources {
		slot := i
		currentSource := source

		group.Go(func() error {
			report, err := w.deriveFile(currentSource, store)
			if err != nil {
				errorsMutex.Lock()

				errors = append(errors, err)

				errorsMutex.Unlock()

				return nil
			}

			reports[slot] = report

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("errors occurred during coverage derivation: %v", errors)
	}

	return reports, nil
}

func (w *workflow) deriveFile(source m.Path, store m.CounterStore) (m.FileReport, error) {
	content, err := w.ReadFile(source)
	if err != nil {
		return m.FileReport{}, fmt.Errorf("read %s: %w", source, err)
	}

	tree, trackers, err := w.Parse(source, content)
	if err != nil {
		return m.FileReport{}, fmt.Errorf("parse %s: %w", source, err)
	}

	slog.Debug("derived source tree", "path", source, "nodes", len(tree.Nodes), "trackers", trackers)

	report, err := w.Derive(tree, store)
	if err != nil {
		return m.FileReport{}, fmt.Errorf("derive %s: %w", source, err)
	}

	return report, nil
}

// View loads a previously saved report for display.
func (w *workflow) View(reports m.Path) ([]m.FileReport, error) {
	loaded, err := w.LoadReports(reports)
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}

	return loaded, nil
}

// MergeCounters combines counter snapshots and hit logs into a single
// snapshot, summing hits per tracker.
func (w *workflow) MergeCounters(inputs []m.Path, output m.Path) error {
	merged := m.MapStore{}

	for _, input := range inputs {
		store, err := w.Load(input)
		if err != nil {
			return fmt.Errorf("load %s: %w", input, err)
		}

		for tracker, hits := range store {
			merged[tracker] += hits
		}
	}

	if err := adapter.SaveSnapshot(output, merged); err != nil {
		return fmt.Errorf("save %s: %w", output, err)
	}

	slog.Info("merged counter snapshots", "inputs", len(inputs), "trackers", len(merged), "output", output)

	return nil
}

// Diff renders two stored reports as YAML and returns their unified diff.
// An empty string means the reports are identical.
func (w *workflow) Diff(before m.Path, after m.Path) (string, error) {
	beforeReports, err := w.LoadReports(before)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", before, err)
	}

	afterReports, err := w.LoadReports(after)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", after, err)
	}

	beforeYAML, err := w.RenderYAML(beforeReports)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", before, err)
	}

	afterYAML, err := w.RenderYAML(afterReports)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", after, err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(beforeYAML)),
		B:        difflib.SplitLines(string(afterYAML)),
		FromFile: string(before),
		ToFile:   string(after),
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff reports: %w", err)
	}

	return diff, nil
}

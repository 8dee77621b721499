package adapter

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"

	m "github.com/opencollective/deep-cover/internal/model"
)

func sampleReports() []m.FileReport {
	return []m.FileReport{
		{
			File: "lib/a.rb",
			Branches: []m.BranchRecord{
				{
					Condition: m.DescriptorAt(m.TagIf, 0, m.SourceRange{
						Start: m.Position{Line: 1},
						End:   m.Position{Line: 5, Col: 3},
					}),
					Branches: []m.BranchCount{
						{Descriptor: m.DescriptorAt(m.TagThen, 1, m.SourceRange{}), Count: 4},
						{Descriptor: m.DescriptorAt(m.TagElse, 2, m.SourceRange{}), Count: 0},
					},
				},
			},
			Runs: []m.NodeRun{{LocationID: 0, Line: 1, Count: 0}},
		},
		{File: "lib/b.rb"},
	}
}

func TestReportStoreMsgpackRoundTrip(t *testing.T) {
	store := NewFileReportStore()
	path := m.Path(filepath.Join(t.TempDir(), "report.mpack"))

	saved := sampleReports()
	if err := store.SaveReports(path, saved); err != nil {
		t.Fatalf("SaveReports() error = %v", err)
	}

	loaded, err := store.LoadReports(path)
	if err != nil {
		t.Fatalf("LoadReports() error = %v", err)
	}

	if !reflect.DeepEqual(saved, loaded) {
		t.Fatalf("round trip changed reports:\nsaved %+v\nloaded %+v", saved, loaded)
	}
}

func TestReportStoreYAMLRoundTrip(t *testing.T) {
	store := NewFileReportStore()
	path := m.Path(filepath.Join(t.TempDir(), "report.yaml"))

	saved := sampleReports()
	if err := store.SaveReports(path, saved); err != nil {
		t.Fatalf("SaveReports() error = %v", err)
	}

	loaded, err := store.LoadReports(path)
	if err != nil {
		t.Fatalf("LoadReports() error = %v", err)
	}

	if len(loaded) != 2 || loaded[0].File != "lib/a.rb" {
		t.Fatalf("LoadReports() = %+v", loaded)
	}

	if loaded[0].Branches[0].Condition.Tag != m.TagIf {
		t.Fatalf("condition tag lost in yaml round trip: %+v", loaded[0].Branches[0])
	}
}

func TestReportStoreCreatesParentDir(t *testing.T) {
	store := NewFileReportStore()
	path := m.Path(filepath.Join(t.TempDir(), "nested", "dir", "report.mpack"))

	if err := store.SaveReports(path, sampleReports()); err != nil {
		t.Fatalf("SaveReports() error = %v", err)
	}

	if _, err := store.LoadReports(path); err != nil {
		t.Fatalf("LoadReports() error = %v", err)
	}
}

func TestRenderYAMLIsDeterministic(t *testing.T) {
	store := NewFileReportStore()
	reports := sampleReports()

	first, err := store.RenderYAML(reports)
	if err != nil {
		t.Fatalf("RenderYAML() error = %v", err)
	}

	second, err := store.RenderYAML(reports)
	if err != nil {
		t.Fatalf("RenderYAML() error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatal("repeated renders are not byte-identical")
	}
}

func TestLoadReportsMissingFile(t *testing.T) {
	store := NewFileReportStore()

	if _, err := store.LoadReports(m.Path(filepath.Join(t.TempDir(), "absent.mpack"))); err == nil {
		t.Fatal("LoadReports() of a missing file should fail")
	}
}

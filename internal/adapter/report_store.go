package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	m "github.com/opencollective/deep-cover/internal/model"
)

// ReportStore persists derived reports and renders them for comparison.
type ReportStore interface {
	SaveReports(path m.Path, reports []m.FileReport) error
	LoadReports(path m.Path) ([]m.FileReport, error)

	// RenderYAML produces the canonical textual form of a report set,
	// used for terminal output and report diffing. Rendering the same
	// reports always yields byte-identical output.
	RenderYAML(reports []m.FileReport) ([]byte, error)
}

// FileReportStore reads and writes report files, choosing the codec by
// extension: .yaml/.yml for the textual form, msgpack otherwise.
type FileReportStore struct{}

// NewFileReportStore constructs a FileReportStore.
func NewFileReportStore() *FileReportStore {
	return &FileReportStore{}
}

func yamlPath(path m.Path) bool {
	ext := strings.ToLower(filepath.Ext(string(path)))

	return ext == ".yaml" || ext == ".yml"
}

// SaveReports implements ReportStore.
func (s *FileReportStore) SaveReports(path m.Path, reports []m.FileReport) error {
	var (
		raw []byte
		err error
	)

	if yamlPath(path) {
		raw, err = s.RenderYAML(reports)
	} else {
		raw, err = msgpack.Marshal(reports)
	}

	if err != nil {
		return fmt.Errorf("encoding reports: %w", err)
	}

	if dir := filepath.Dir(string(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating report directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(string(path), raw, 0o644); err != nil {
		return fmt.Errorf("writing reports to %s: %w", path, err)
	}

	return nil
}

// LoadReports implements ReportStore.
func (s *FileReportStore) LoadReports(path m.Path) ([]m.FileReport, error) {
	raw, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("reading reports from %s: %w", path, err)
	}

	var reports []m.FileReport

	if yamlPath(path) {
		err = yaml.Unmarshal(raw, &reports)
	} else {
		err = msgpack.Unmarshal(raw, &reports)
	}

	if err != nil {
		return nil, fmt.Errorf("decoding reports from %s: %w", path, err)
	}

	return reports, nil
}

// RenderYAML implements ReportStore.
func (s *FileReportStore) RenderYAML(reports []m.FileReport) ([]byte, error) {
	raw, err := yaml.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("rendering reports: %w", err)
	}

	return raw, nil
}

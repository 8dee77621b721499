// Package adapter contains parser, storage and UI adapters for the
// deep-cover CLI.
package adapter

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	m "github.com/opencollective/deep-cover/internal/model"
)

// SourceFSAdapter abstracts filesystem operations the workflow relies on
// when scanning target projects, so derivation logic can be tested without
// touching the disk.
type SourceFSAdapter interface {
	// ScanRubySources collects .rb files under each root, skipping any
	// path matching one of the exclude patterns (regular expressions).
	// Results are sorted so derivation order is reproducible.
	ScanRubySources(roots []m.Path, exclude []string) ([]m.Path, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)
}

// LocalSourceFSAdapter backs SourceFSAdapter with the local filesystem.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// ScanRubySources implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) ScanRubySources(roots []m.Path, exclude []string) ([]m.Path, error) {
	if len(roots) == 0 {
		roots = []m.Path{"."}
	}

	patterns := make([]*regexp.Regexp, 0, len(exclude))

	for _, raw := range exclude {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, err
		}

		patterns = append(patterns, re)
	}

	seen := make(map[string]struct{})

	var sources []m.Path

	for _, root := range roots {
		err := filepath.Walk(string(root), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				base := filepath.Base(path)
				if base == ".git" || base == "vendor" || base == "node_modules" {
					return filepath.SkipDir
				}

				return nil
			}

			if !strings.EqualFold(filepath.Ext(path), ".rb") {
				return nil
			}

			for _, re := range patterns {
				if re.MatchString(path) {
					return nil
				}
			}

			if _, ok := seen[path]; ok {
				return nil
			}

			seen[path] = struct{}{}
			sources = append(sources, m.Path(path))

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	return sources, nil
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

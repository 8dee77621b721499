package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	m "github.com/opencollective/deep-cover/internal/model"
	"github.com/opencollective/deep-cover/pkg/hitlog"
)

// CounterSnapshotAdapter loads the final counter state written by the
// instrumented target program. This engine only ever reads counters; the
// increment discipline belongs to the runtime.
type CounterSnapshotAdapter interface {
	// Load reads a snapshot file into a map-backed store. An empty path
	// yields an all-zero store, which derives an all-zero report.
	Load(path m.Path) (m.MapStore, error)
}

// LocalCounterSnapshotAdapter reads snapshots from the local filesystem.
// Two at-rest formats are understood: an append-only hit log (.hits) that
// is folded into a map on load, and a msgpack-encoded id to count map for
// every other extension.
type LocalCounterSnapshotAdapter struct{}

// NewLocalCounterSnapshotAdapter constructs a LocalCounterSnapshotAdapter.
func NewLocalCounterSnapshotAdapter() *LocalCounterSnapshotAdapter {
	return &LocalCounterSnapshotAdapter{}
}

// Load implements CounterSnapshotAdapter.
func (a *LocalCounterSnapshotAdapter) Load(path m.Path) (m.MapStore, error) {
	if path == "" {
		return m.MapStore{}, nil
	}

	if strings.EqualFold(filepath.Ext(string(path)), ".hits") {
		return a.loadHitLog(path)
	}

	raw, err := os.ReadFile(string(path))
	if err != nil {
		return nil, fmt.Errorf("reading counter snapshot %s: %w", path, err)
	}

	var decoded map[int32]int64
	if err := msgpack.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding counter snapshot %s: %w", path, err)
	}

	store := make(m.MapStore, len(decoded))
	for id, count := range decoded {
		store[m.TrackerID(id)] = count
	}

	return store, nil
}

func (a *LocalCounterSnapshotAdapter) loadHitLog(path m.Path) (m.MapStore, error) {
	log, err := hitlog.Open(string(path))
	if err != nil {
		return nil, fmt.Errorf("opening hit log %s: %w", path, err)
	}
	defer log.Close()

	folded, err := log.Fold()
	if err != nil {
		return nil, fmt.Errorf("folding hit log %s: %w", path, err)
	}

	store := make(m.MapStore, len(folded))
	for id, count := range folded {
		store[m.TrackerID(id)] = count
	}

	return store, nil
}

// SaveSnapshot writes a map store in the msgpack at-rest format. Used by
// tests and by tooling that converts hit logs into snapshots.
func SaveSnapshot(path m.Path, store m.MapStore) error {
	encoded := make(map[int32]int64, len(store))
	for id, count := range store {
		encoded[int32(id)] = count
	}

	raw, err := msgpack.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encoding counter snapshot: %w", err)
	}

	if dir := filepath.Dir(string(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating snapshot directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(string(path), raw, 0o644); err != nil {
		return fmt.Errorf("writing counter snapshot %s: %w", path, err)
	}

	return nil
}

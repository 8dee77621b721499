// Package hitlog provides an append-only on-disk log of tracker hits and
// the fold that turns it into a counter snapshot.
package hitlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Hit is one recorded increment of a tracker counter.
type Hit struct {
	Tracker int32
	Delta   int64
}

// hitSize is the fixed on-disk record width: int32 tracker + int64 delta.
// Fixed-width records keep appends from separate process runs readable by
// a single sequential scan.
const hitSize = 12

// Log is an append-only hit log of fixed-width binary records. Appends are
// serialized by an internal mutex; folds open their own handle so reading
// never disturbs the write position.
type Log struct {
	path   string
	file   *os.File
	mu     sync.Mutex
	length uint64
}

// Create opens a fresh log at path, truncating any previous content.
func Create(path string) (*Log, error) {
	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create hit log", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create hit log: %w", err)
	}

	slog.Debug("created hit log", "path", path)

	return &Log{path: path, file: file}, nil
}

// Open opens an existing log for reading and appending.
func Open(path string) (*Log, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("failed to open hit log", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open hit log: %w", err)
	}

	l := &Log{path: path, file: file}

	if info, err := file.Stat(); err == nil {
		l.length = uint64(info.Size()) / hitSize
	}

	return l, nil
}

// Path returns the log's file path.
func (l *Log) Path() string { return l.path }

// Len returns the number of recorded hits.
func (l *Log) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.length
}

// Append records one hit.
func (l *Log) Append(hit Hit) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var buf [hitSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(hit.Tracker))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(hit.Delta))

	if _, err := l.file.Write(buf[:]); err != nil {
		slog.Error("failed to write hit", "path", l.path, "index", l.length, "error", err)
		return fmt.Errorf("failed to write hit: %w", err)
	}

	l.length++

	return nil
}

// AppendBatch records hits in order, stopping at the first failure.
func (l *Log) AppendBatch(hits []Hit) error {
	for _, hit := range hits {
		if err := l.Append(hit); err != nil {
			return err
		}
	}

	return nil
}

// Fold replays the log into a tracker→count map. Hits for the same tracker
// accumulate; the result is the final counter snapshot.
func (l *Log) Fold() (map[int32]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		slog.Error("failed to open hit log for fold", "path", l.path, "error", err)
		return nil, fmt.Errorf("failed to open hit log: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close hit log", "path", l.path, "error", err)
		}
	}()

	folded := make(map[int32]int64)

	var buf [hitSize]byte

	for {
		if _, err := io.ReadFull(file, buf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			slog.Error("failed to read hit during fold", "path", l.path, "error", err)

			return nil, fmt.Errorf("failed to read hit: %w", err)
		}

		tracker := int32(binary.LittleEndian.Uint32(buf[0:4]))
		delta := int64(binary.LittleEndian.Uint64(buf[4:12]))
		folded[tracker] += delta
	}

	slog.Debug("folded hit log", "path", l.path, "trackers", len(folded))

	return folded, nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	if err := l.file.Close(); err != nil {
		slog.Error("failed to close hit log", "path", l.path, "error", err)
		return err
	}

	l.file = nil

	return nil
}

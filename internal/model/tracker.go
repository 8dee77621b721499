package model

// TrackerID names one counter slot in the external counter store. Ids are
// assigned by the frontend in deterministic traversal order, matching the
// order the source instrumenter injects counters.
type TrackerID int32

// NoTracker marks a node slot with no counter bound to it.
const NoTracker TrackerID = -1

// Valid reports whether the id refers to a real counter slot.
func (id TrackerID) Valid() bool { return id != NoTracker }

// TrackerSet holds the counters a node may reference. Most nodes carry at
// most Execution; safe-navigation calls carry Then and Else as well.
type TrackerSet struct {
	// Execution counts control reaching the node (entered-body tracker
	// for handler arms).
	Execution TrackerID

	// Completion counts normal fallthrough out of the node. Injected at
	// the end of compound bodies so abnormal exits are observable.
	Completion TrackerID

	// Then counts the receiver being non-nil and the call made.
	Then TrackerID

	// Else counts the receiver being nil and the call skipped.
	Else TrackerID
}

// NoTrackers is the zero-counter set.
var NoTrackers = TrackerSet{
	Execution:  NoTracker,
	Completion: NoTracker,
	Then:       NoTracker,
	Else:       NoTracker,
}

// ExecutionOnly binds a single entered tracker.
func ExecutionOnly(id TrackerID) TrackerSet {
	set := NoTrackers
	set.Execution = id

	return set
}

// CounterStore is the read-only view of the external counter store. Hits
// must return 0 for ids never incremented or never registered.
type CounterStore interface {
	Hits(id TrackerID) int64
}

// MapStore is a CounterStore backed by an in-memory map, the shape counter
// snapshots are decoded into.
type MapStore map[TrackerID]int64

// Hits returns the recorded count for id, or 0 when absent or invalid.
func (s MapStore) Hits(id TrackerID) int64 {
	if !id.Valid() {
		return 0
	}

	return s[id]
}

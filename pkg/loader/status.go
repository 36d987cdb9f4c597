package loader

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/chazu/libload/pkg/catalogue"
	"github.com/chazu/libload/pkg/metrics"
)

// LoadState represents the load state of a library within a process
type LoadState string

const (
	// LoadStateNotRequested indicates no load has been attempted
	LoadStateNotRequested LoadState = "NotRequested"

	// LoadStatePending indicates a load attempt is in flight
	LoadStatePending LoadState = "Pending"

	// LoadStateLoaded indicates the library was loaded
	LoadStateLoaded LoadState = "Loaded"

	// LoadStateFailed indicates the load attempt failed
	LoadStateFailed LoadState = "Failed"
)

// LibraryStatus contains the load status of a single library
type LibraryStatus struct {
	// State is the current state of the library
	State LoadState

	// Error contains the error message if State is LoadStateFailed
	Error string

	// StartTime is when the load attempt began
	StartTime *time.Time

	// EndTime is when the load attempt finished
	EndTime *time.Time
}

type statusEntry struct {
	status LibraryStatus
	err    error

	// done is closed when the entry leaves LoadStatePending
	done chan struct{}
}

// StatusTable tracks the load state of every library that has been requested.
// It is safe for concurrent use. Loaded and Failed are terminal until Reset.
type StatusTable struct {
	mu sync.Mutex

	// entries maps library ID to its status; absent means NotRequested
	entries map[catalogue.ID]*statusEntry
}

// DefaultStatusTable is the process-wide status table used by loaders that
// are not given their own
var DefaultStatusTable = NewStatusTable()

// NewStatusTable creates an empty status table
func NewStatusTable() *StatusTable {
	return &StatusTable{
		entries: make(map[catalogue.ID]*statusEntry),
	}
}

// GetState returns the current state of a library
func (t *StatusTable) GetState(id catalogue.ID) LoadState {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, found := t.entries[id]
	if !found {
		return LoadStateNotRequested
	}
	return entry.status.State
}

// GetStatus returns a copy of the full status of a library
func (t *StatusTable) GetStatus(id catalogue.ID) LibraryStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, found := t.entries[id]
	if !found {
		return LibraryStatus{State: LoadStateNotRequested}
	}
	return entry.status
}

// Err returns the error recorded for a failed library, or nil
func (t *StatusTable) Err(id catalogue.ID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, found := t.entries[id]; found {
		return entry.err
	}
	return nil
}

// Begin claims a library for loading.
//
// It returns the state the library was in. If that state is
// LoadStateNotRequested the library is now Pending and the caller owns the
// load: it must call Finish exactly once. If the state is LoadStatePending
// the returned channel is closed once the owner finishes. Terminal states are
// returned as they are and the channel is nil.
func (t *StatusTable) Begin(id catalogue.ID) (LoadState, <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, found := t.entries[id]
	if !found {
		now := time.Now()
		t.entries[id] = &statusEntry{
			status: LibraryStatus{
				State:     LoadStatePending,
				StartTime: &now,
			},
			done: make(chan struct{}),
		}
		return LoadStateNotRequested, nil
	}

	if entry.status.State == LoadStatePending {
		return LoadStatePending, entry.done
	}
	return entry.status.State, nil
}

// Finish records the result of a load claimed with Begin and wakes any
// waiters. A nil loadErr marks the library Loaded, anything else Failed.
func (t *StatusTable) Finish(id catalogue.ID, loadErr error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, found := t.entries[id]
	if !found {
		return fmt.Errorf("library %d was never claimed", id)
	}

	newState := LoadStateLoaded
	if loadErr != nil {
		newState = LoadStateFailed
	}

	if err := validateStateTransition(entry.status.State, newState); err != nil {
		return fmt.Errorf("invalid state transition for library %d: %w", id, err)
	}

	now := time.Now()
	entry.status.State = newState
	entry.status.EndTime = &now
	if loadErr != nil {
		entry.err = loadErr
		entry.status.Error = loadErr.Error()
	}
	close(entry.done)

	return nil
}

// IDsInState returns all library IDs in a given state, ordered by ID
func (t *StatusTable) IDsInState(state LoadState) []catalogue.ID {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []catalogue.ID
	for id, entry := range t.entries {
		if entry.status.State == state {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of libraries in a given state.
// LoadStateNotRequested is not tracked and always counts zero.
func (t *StatusTable) Count(state LoadState) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, entry := range t.entries {
		if entry.status.State == state {
			count++
		}
	}
	return count
}

// GetSummary returns a summary of the table
func (t *StatusTable) GetSummary() StatusSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	summary := StatusSummary{Total: len(t.entries)}
	for _, entry := range t.entries {
		switch entry.status.State {
		case LoadStatePending:
			summary.Pending++
		case LoadStateLoaded:
			summary.Loaded++
		case LoadStateFailed:
			summary.Failed++
		}
	}
	return summary
}

// Reset forgets every terminal entry so that those libraries may be loaded
// again. In-flight loads are kept.
func (t *StatusTable) Reset() {
	t.mu.Lock()
	for id, entry := range t.entries {
		if entry.status.State != LoadStatePending {
			delete(t.entries, id)
		}
	}
	t.mu.Unlock()

	t.recordLoaded()
}

// recordLoaded publishes the loaded count of the process-wide table.
// Private tables are not reported.
func (t *StatusTable) recordLoaded() {
	if t != DefaultStatusTable {
		return
	}
	metrics.SetLibrariesLoaded(t.Count(LoadStateLoaded))
}

// StatusSummary provides a summary of a status table
type StatusSummary struct {
	Total   int
	Pending int
	Loaded  int
	Failed  int
}

// validateStateTransition checks if a state transition is valid
func validateStateTransition(from, to LoadState) error {
	validTransitions := map[LoadState][]LoadState{
		LoadStateNotRequested: {
			LoadStatePending,
		},
		LoadStatePending: {
			LoadStateLoaded,
			LoadStateFailed,
		},
		LoadStateLoaded: {
			// Terminal state - no transitions
		},
		LoadStateFailed: {
			// Terminal state - no transitions
		},
	}

	allowed, found := validTransitions[from]
	if !found {
		return fmt.Errorf("unknown state: %s", from)
	}

	if slices.Contains(allowed, to) {
		return nil
	}

	return fmt.Errorf("cannot transition from %s to %s", from, to)
}

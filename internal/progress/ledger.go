// Package progress persists the resumable state of a run and the JSON
// report artifacts operators read afterwards.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"crew_migrator/internal/domain"
)

// State is the on-disk shape of the progress file. Completed keys are
// per-asset ("{id}:photo"), not per-record, so a record whose CV failed
// after its photo uploaded is retried for exactly the CV on the next run.
type State struct {
	LastProcessedIndex int                     `json:"lastProcessedIndex"`
	Completed          []string                `json:"completed"`
	Errors             []domain.MigrationError `json:"errors"`
}

// Ledger is the single writer of the progress file. It persists after every
// mark so a killed run loses at most the record in flight.
type Ledger struct {
	path string

	lastIndex int
	completed map[string]bool
	errors    []domain.MigrationError
}

// Key builds a completion key for one unit of work: an asset type, or the
// "profile" / "links" DB parts.
func Key(freelancerID int64, part string) string {
	return fmt.Sprintf("%d:%s", freelancerID, part)
}

// SlugKey is the pre-match variant used by the downloader, where records
// have no FreelancerID yet.
func SlugKey(slug string, part string) string {
	return slug + ":" + part
}

// Open loads an existing progress file or starts empty.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path:      path,
		completed: make(map[string]bool),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse progress file %s: %w", path, err)
	}

	l.lastIndex = state.LastProcessedIndex
	for _, k := range state.Completed {
		l.completed[k] = true
	}
	l.errors = state.Errors

	return l, nil
}

// Done reports whether a unit of work finished in this or a previous run.
func (l *Ledger) Done(key string) bool {
	return l.completed[key]
}

// MarkDone records a finished unit and persists immediately.
func (l *Ledger) MarkDone(key string, index int) error {
	l.completed[key] = true
	if index > l.lastIndex {
		l.lastIndex = index
	}
	return l.persist()
}

// RecordError appends a failure and persists immediately.
func (l *Ledger) RecordError(e domain.MigrationError) error {
	l.errors = append(l.errors, e)
	return l.persist()
}

// Errors returns the failures accumulated across all runs so far.
func (l *Ledger) Errors() []domain.MigrationError {
	return l.errors
}

// Clear removes the progress file after a clean full completion.
func (l *Ledger) Clear() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove progress file: %w", err)
	}
	return nil
}

func (l *Ledger) persist() error {
	keys := make([]string, 0, len(l.completed))
	for k := range l.completed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	state := State{
		LastProcessedIndex: l.lastIndex,
		Completed:          keys,
		Errors:             l.errors,
	}
	return writeJSON(l.path, state)
}

// writeJSON writes atomically via temp + rename so a kill mid-write never
// corrupts the file a resumed run depends on.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

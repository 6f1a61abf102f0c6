// Package state keeps the on-disk journal of an in-flight rename batch so an
// interrupted run can be completed or reverted.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// Phase is how far one plan entry got.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseStaged    Phase = "staged"
	PhaseCommitted Phase = "committed"
	// PhaseReverting marks staged entries about to move back to their
	// original path. Once the staging file is gone they are at Current.
	PhaseReverting Phase = "reverting"
)

type JournalEntry struct {
	types.RenamePlanEntry
	Phase Phase `json:"phase"`
}

type Journal struct {
	mu        sync.RWMutex
	filePath  string
	Token     string         `json:"token"`
	Entries   []JournalEntry `json:"entries"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func New(filePath string) *Journal {
	return &Journal{filePath: filePath}
}

// Load reads a leftover journal. A missing file yields an empty journal.
func Load(filePath string) (*Journal, error) {
	j := New(filePath)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return j, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, j); err != nil {
		return nil, err
	}

	return j, nil
}

// Begin resets the journal to the given plan with every entry pending.
func (j *Journal) Begin(plan *types.RenamePlan) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Token = plan.Token
	j.Entries = make([]JournalEntry, len(plan.Entries))
	for i, e := range plan.Entries {
		j.Entries[i] = JournalEntry{RenamePlanEntry: e, Phase: PhasePending}
	}
	j.StartedAt = time.Now()
	j.UpdatedAt = j.StartedAt
}

// Mark records the phase reached by entry i.
func (j *Journal) Mark(i int, phase Phase) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if i < 0 || i >= len(j.Entries) {
		return
	}
	j.Entries[i].Phase = phase
	j.UpdatedAt = time.Now()
}

// InFlight reports whether an unfinished batch is recorded.
func (j *Journal) InFlight() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, e := range j.Entries {
		if e.Phase != PhaseCommitted {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the entries.
func (j *Journal) Snapshot() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return append([]JournalEntry(nil), j.Entries...)
}

func (j *Journal) Path() string {
	return j.filePath
}

// Save writes the journal atomically (temp file, then rename).
func (j *Journal) Save() error {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(j.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := j.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, j.filePath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Delete removes the journal file and clears the in-memory entries.
func (j *Journal) Delete() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Token = ""
	j.Entries = nil
	if err := os.Remove(j.filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

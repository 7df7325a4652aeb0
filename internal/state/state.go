// Package state persists the per-project sync records consulted by change
// detection between runs.
//
// The state file is a cache of what the last run saw, never a source of
// truth: a missing, corrupt, or format-incompatible file degrades to an empty
// state, which simply costs one full re-sync. Callers decide whether a Load
// failure deserves a warning; it is never fatal.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Filename is the state file's name under the output root. Hidden so the
// synced tree stays clean for downstream consumers.
const Filename = ".sync-state.json"

// FormatVersion identifies the state layout and the fingerprint algorithm it
// stores. Bumping it invalidates all persisted fingerprints and causes one
// full re-sync, which is expected behavior after an algorithm change, not a
// bug.
const FormatVersion = 1

// State is the on-disk sync state: everything the last run knew, keyed by
// project UUID. Orphaned projects stay in here (flagged with OrphanedAt) so
// they keep appearing in the manifest run after run.
type State struct {
	Version  int                     `json:"version"`
	SyncedAt string                  `json:"synced_at"`
	Projects map[string]ProjectState `json:"projects"`
}

// ProjectState records the last-synced shape of one project.
type ProjectState struct {
	Name             string                       `json:"name"`
	Slug             string                       `json:"slug"`
	UpdatedAt        string                       `json:"updated_at"`
	InstructionsHash string                       `json:"prompt_template_hash"`
	Docs             map[string]DocState          `json:"docs"`
	Conversations    map[string]ConversationState `json:"conversations,omitempty"`
	// OrphanedAt is set once the project disappears from the remote listing;
	// empty for live projects.
	OrphanedAt string `json:"orphaned_at,omitempty"`
}

// DocState is the fingerprint and local filename of one synced document.
type DocState struct {
	Hash     string `json:"hash"`
	Filename string `json:"filename"`
}

// ConversationState is the per-conversation record used both for change
// detection and as the conversation index entry written alongside the files.
type ConversationState struct {
	Name         string `json:"name"`
	Filename     string `json:"filename"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	MessageCount int    `json:"message_count"`
}

// New returns an empty state at the current format version.
func New() *State {
	return &State{
		Version:  FormatVersion,
		Projects: map[string]ProjectState{},
	}
}

// Snapshot assembles a fresh state from per-project results collected during
// a run. The input map is copied, not retained.
func Snapshot(syncedAt time.Time, projects map[string]ProjectState) *State {
	st := New()
	st.SyncedAt = syncedAt.UTC().Format(time.RFC3339)
	for id, entry := range projects {
		st.Projects[id] = entry
	}
	return st
}

// Load reads the state file at path. A missing file is a normal first run and
// yields an empty state with no error. Anything else that prevents reading a
// usable state (unreadable file, bad JSON, other format version) returns an
// error alongside nil; callers degrade to New() and carry on.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	if st.Version != FormatVersion {
		return nil, fmt.Errorf("state file %s has format version %d, this build writes %d",
			path, st.Version, FormatVersion)
	}
	if st.Projects == nil {
		st.Projects = map[string]ProjectState{}
	}
	return &st, nil
}

// Save writes the state file atomically enough for a single-writer world:
// full serialize, then one WriteFile.
func (s *State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", path, err)
	}
	return nil
}

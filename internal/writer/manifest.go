package writer

import (
	"path/filepath"

	"github.com/steveyegge/claude-sync/internal/state"
)

// Manifest is the top-level index.json: every known project keyed by remote
// ID, live and orphaned alike.
type Manifest struct {
	SyncedAt string                   `json:"synced_at"`
	OrgID    string                   `json:"org_id"`
	Projects map[string]ManifestEntry `json:"projects"`
}

// ManifestEntry describes one project. Live entries carry the remote update
// timestamp and a document count; orphaned entries carry the orphan marker
// and timestamp instead.
type ManifestEntry struct {
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Path       string `json:"path"`
	UpdatedAt  string `json:"updated_at,omitempty"`
	DocsCount  *int   `json:"docs_count,omitempty"`
	Orphaned   bool   `json:"orphaned,omitempty"`
	OrphanedAt string `json:"orphaned_at,omitempty"`
}

// BuildManifest derives the manifest from an end-of-run state snapshot. The
// manifest is a projection of state, never an independent accumulator, so the
// two cannot drift.
func BuildManifest(orgID string, st *state.State) *Manifest {
	m := &Manifest{
		SyncedAt: st.SyncedAt,
		OrgID:    orgID,
		Projects: make(map[string]ManifestEntry, len(st.Projects)),
	}
	for id, p := range st.Projects {
		entry := ManifestEntry{
			Name: p.Name,
			Slug: p.Slug,
			Path: p.Slug + "/",
		}
		if p.OrphanedAt != "" {
			entry.Orphaned = true
			entry.OrphanedAt = p.OrphanedAt
		} else {
			entry.UpdatedAt = p.UpdatedAt
			n := len(p.Docs)
			entry.DocsCount = &n
		}
		m.Projects[id] = entry
	}
	return m
}

// WriteManifest writes the manifest to index.json under the output root.
func (w *Writer) WriteManifest(m *Manifest) error {
	return writeJSON(filepath.Join(w.root, "index.json"), m)
}

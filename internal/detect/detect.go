// Package detect decides, per project and per conversation, whether remote
// state differs from the last-synced state and why.
//
// Decisions are pure comparisons over already-fetched data; nothing here does
// I/O. Project documents are always fetched in full before a project decision
// runs, so the fetch the decisions exist to avoid is the conversation message
// fetch, not the document fetch.
package detect

import (
	"fmt"
	"sort"

	"github.com/steveyegge/claude-sync/internal/api"
	"github.com/steveyegge/claude-sync/internal/fingerprint"
	"github.com/steveyegge/claude-sync/internal/state"
)

// Decision is one change-check outcome: whether to sync and the
// human-readable reason that gets logged for it.
type Decision struct {
	Sync   bool
	Reason string
}

// Project reports whether a project must be re-written, evaluated in fixed
// priority order; the first difference wins.
func Project(project *api.Project, docs []api.Document, prev *state.State) Decision {
	entry, ok := prev.Projects[project.UUID]
	if !ok {
		return Decision{Sync: true, Reason: "new project"}
	}

	if !TimestampsEqual(project.UpdatedAt, entry.UpdatedAt) {
		return Decision{
			Sync:   true,
			Reason: fmt.Sprintf("updated (%s → %s)", datePrefix(entry.UpdatedAt), datePrefix(project.UpdatedAt)),
		}
	}

	if fingerprint.Sum(project.PromptTemplate) != entry.InstructionsHash {
		return Decision{Sync: true, Reason: "instructions changed"}
	}

	if len(docs) != len(entry.Docs) {
		return Decision{
			Sync:   true,
			Reason: fmt.Sprintf("doc count changed (%d → %d)", len(entry.Docs), len(docs)),
		}
	}

	for _, doc := range docs {
		prevDoc, ok := entry.Docs[doc.UUID]
		if !ok || prevDoc.Hash != fingerprint.Sum(doc.Content) {
			return Decision{Sync: true, Reason: "doc content changed"}
		}
	}

	return Decision{Sync: false, Reason: "unchanged"}
}

// Conversation reports whether a conversation's messages must be fetched and
// re-written. It consults only the cheap summary listing; deciding never
// costs a full message fetch.
func Conversation(convo api.ConversationSummary, prev map[string]state.ConversationState, forceFull bool) Decision {
	if forceFull {
		return Decision{Sync: true, Reason: "full sync"}
	}

	entry, ok := prev[convo.UUID]
	if !ok {
		return Decision{Sync: true, Reason: "new"}
	}

	if !TimestampsEqual(convo.UpdatedAt, entry.UpdatedAt) {
		return Decision{Sync: true, Reason: "updated"}
	}

	return Decision{Sync: false, Reason: "unchanged"}
}

// Orphans returns the project IDs known from prior state but absent from the
// current remote listing, sorted for stable output. Already-orphaned entries
// keep showing up here until the remote project returns or the state entry is
// removed by hand.
func Orphans(listed []api.ProjectSummary, prev *state.State) []string {
	live := make(map[string]bool, len(listed))
	for _, p := range listed {
		live[p.UUID] = true
	}

	var ids []string
	for id := range prev.Projects {
		if !live[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// TimestampsEqual compares two remote timestamps as instants, so trailing "Z"
// versus an explicit "+00:00" offset still compare equal. If either side does
// not parse, it falls back to raw string equality.
func TimestampsEqual(a, b string) bool {
	ta, errA := api.ParseTime(a)
	tb, errB := api.ParseTime(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta.Equal(tb)
}

// datePrefix trims a timestamp to its date for compact reasons.
func datePrefix(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

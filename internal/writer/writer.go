// Package writer applies sync decisions to the local tree.
//
// Every write fully overwrites its target and is idempotent. A project's
// directory slot is owned by whichever remote ID its meta.json declares;
// ownership is verified before every project write and a mismatch aborts that
// project rather than guessing. Local files are never deleted, not even for
// projects that have vanished remotely.
package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steveyegge/claude-sync/internal/api"
	"github.com/steveyegge/claude-sync/internal/fingerprint"
	"github.com/steveyegge/claude-sync/internal/markdown"
	"github.com/steveyegge/claude-sync/internal/naming"
	"github.com/steveyegge/claude-sync/internal/state"
)

// CollisionError reports two distinct remote projects mapping to the same
// local directory. It is fatal for the incoming project; resolution is
// manual.
type CollisionError struct {
	Slug         string
	ExistingUUID string
	IncomingUUID string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("slug collision at %q: directory is owned by project %s, refusing to overwrite with %s (rename one project or move the directory aside)",
		e.Slug, e.ExistingUUID, e.IncomingUUID)
}

// Writer owns the output root.
type Writer struct {
	root   string
	logger *slog.Logger
}

// New returns a Writer rooted at dir. A nil logger falls back to the default.
func New(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{root: dir, logger: logger}
}

// Root returns the output root directory.
func (w *Writer) Root() string {
	return w.root
}

// ProjectResult reports what a project write produced, for the caller's state
// snapshot.
type ProjectResult struct {
	Slug             string
	Dir              string
	InstructionsHash string
	Docs             map[string]state.DocState
}

// projectMeta is the meta.json shape. The UUID field doubles as the directory
// ownership claim checked before every write.
type projectMeta struct {
	UUID        string `json:"uuid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	IsPrivate   bool   `json:"is_private"`
	SyncedAt    string `json:"synced_at"`
}

// WriteProject writes a project's instructions, metadata, and documents under
// its slug directory, creating it if needed.
func (w *Writer) WriteProject(project *api.Project, docs []api.Document, syncedAt time.Time) (*ProjectResult, error) {
	slug := naming.Slug(project.Name, project.UUID)
	dir := filepath.Join(w.root, slug)

	owner, err := w.readOwner(dir)
	if err != nil {
		return nil, err
	}
	if owner != "" && owner != project.UUID {
		return nil, &CollisionError{Slug: slug, ExistingUUID: owner, IncomingUUID: project.UUID}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project directory %s: %w", dir, err)
	}

	stamp := syncedAt.UTC().Format(time.RFC3339)

	if err := w.writeInstructions(dir, project, stamp); err != nil {
		return nil, err
	}

	meta := projectMeta{
		UUID:        project.UUID,
		Name:        project.Name,
		Description: project.Description,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		IsPrivate:   project.IsPrivate,
		SyncedAt:    stamp,
	}
	if err := writeJSON(filepath.Join(dir, "meta.json"), meta); err != nil {
		return nil, err
	}

	docStates, err := w.writeDocs(dir, docs)
	if err != nil {
		return nil, err
	}

	return &ProjectResult{
		Slug:             slug,
		Dir:              dir,
		InstructionsHash: fingerprint.Sum(project.PromptTemplate),
		Docs:             docStates,
	}, nil
}

// readOwner returns the remote ID claiming dir, "" when the slot is free. A
// corrupt meta.json is treated as absent so a half-written file never bricks
// the slot.
func (w *Writer) readOwner(dir string) (string, error) {
	path := filepath.Join(dir, "meta.json")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var meta projectMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		w.logger.Warn("corrupt meta.json, treating directory as unowned", "path", path, "error", err)
		return "", nil
	}
	return meta.UUID, nil
}

// writeInstructions writes CLAUDE.md: front matter, then the raw instructions
// text, or a placeholder when the project has none.
func (w *Writer) writeInstructions(dir string, project *api.Project, stamp string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "---\nsynced_at: %s\nsource: claude.ai/project/%s\n---\n\n", stamp, project.UUID)
	if project.PromptTemplate != "" {
		b.WriteString(project.PromptTemplate)
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "# %s\n\n_No project instructions defined._\n", project.Name)
	}

	path := filepath.Join(dir, "CLAUDE.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// writeDocs writes one markdown file per document under docs/. Filenames are
// sanitized and uniqued against this project's document set only; the set
// resets every write.
func (w *Writer) writeDocs(dir string, docs []api.Document) (map[string]state.DocState, error) {
	states := make(map[string]state.DocState, len(docs))
	if len(docs) == 0 {
		return states, nil
	}

	docsDir := filepath.Join(dir, "docs")
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs directory %s: %w", docsDir, err)
	}

	used := make(map[string]bool, len(docs))
	for _, doc := range docs {
		name := docFilename(doc.FileName(), used)
		used[name] = true

		path := filepath.Join(docsDir, name)
		if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}

		states[doc.UUID] = state.DocState{
			Hash:     fingerprint.Sum(doc.Content),
			Filename: name,
		}
	}
	return states, nil
}

// docFilename derives a safe unique filename: fallback for missing names,
// forced .md extension, sanitized, then uniqued against used.
func docFilename(remote string, used map[string]bool) string {
	name := remote
	if name == "" {
		name = "untitled.md"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".md") {
		name += ".md"
	}
	return naming.Unique(naming.Sanitize(name), used, true)
}

// WriteConversation writes one conversation as markdown under conversations/.
// Conversations with no messages are skipped and reported via the second
// return. The caller owns the used-filename set so retained conversations
// keep their slots.
func (w *Writer) WriteConversation(projectDir string, convo *api.Conversation, used map[string]bool, syncedAt time.Time) (state.ConversationState, bool, error) {
	if len(convo.Messages) == 0 {
		return state.ConversationState{}, false, nil
	}

	name := convo.Name
	if name == "" {
		name = "untitled"
	}
	filename := docFilename(name, used)
	used[filename] = true

	dir := filepath.Join(projectDir, "conversations")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return state.ConversationState{}, false, fmt.Errorf("failed to create conversations directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	content := markdown.Conversation(convo, syncedAt)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return state.ConversationState{}, false, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return state.ConversationState{
		Name:         convo.Name,
		Filename:     filename,
		CreatedAt:    convo.CreatedAt,
		UpdatedAt:    convo.UpdatedAt,
		MessageCount: len(convo.Messages),
	}, true, nil
}

// conversationIndex is the conversations/index.json shape.
type conversationIndex struct {
	SyncedAt      string                              `json:"synced_at"`
	Conversations map[string]state.ConversationState `json:"conversations"`
}

// WriteConversationIndex writes the per-project conversation index listing
// every synced or retained conversation.
func (w *Writer) WriteConversationIndex(projectDir string, entries map[string]state.ConversationState, syncedAt time.Time) error {
	dir := filepath.Join(projectDir, "conversations")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create conversations directory %s: %w", dir, err)
	}
	index := conversationIndex{
		SyncedAt:      syncedAt.UTC().Format(time.RFC3339),
		Conversations: entries,
	}
	return writeJSON(filepath.Join(dir, "index.json"), index)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

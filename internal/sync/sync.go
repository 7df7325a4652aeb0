// Package sync orchestrates one synchronization run: list remote projects,
// decide per entity what changed, fetch what did, write it locally, and
// persist an end-of-run state snapshot plus manifest.
//
// Projects are processed strictly sequentially; the client's inter-request
// delay keeps the run inside a polite rate budget, so parallel fetches are
// deliberately avoided. Cancellation is checked at the top of each project
// iteration. However far the run got, the snapshot and manifest are written
// from whatever accumulated; partial progress is never discarded.
//
// The state file and output tree are owned by one run at a time. Concurrent
// runs against the same output directory are undefined behavior and are the
// caller's responsibility to avoid.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steveyegge/claude-sync/internal/api"
	"github.com/steveyegge/claude-sync/internal/detect"
	"github.com/steveyegge/claude-sync/internal/state"
	"github.com/steveyegge/claude-sync/internal/writer"
)

// API is the remote surface the engine consumes.
type API interface {
	Projects(ctx context.Context, orgID string) ([]api.ProjectSummary, error)
	Project(ctx context.Context, orgID, projectID string) (*api.Project, error)
	ProjectDocs(ctx context.Context, orgID, projectID string) ([]api.Document, error)
	ProjectConversations(ctx context.Context, orgID, projectID string) ([]api.ConversationSummary, error)
	Conversation(ctx context.Context, orgID, conversationID string) (*api.Conversation, error)
}

// Progress receives one line per processed project.
type Progress interface {
	Step(index, total int, name, reason string, synced bool)
}

// Options configure a run.
type Options struct {
	OrgID         string
	Output        string
	Conversations bool
	FullResync    bool

	// ProjectFilter restricts the run to projects whose ID matches exactly or
	// whose name contains the filter, case-insensitively. Orphan detection
	// still sees the full listing.
	ProjectFilter string

	Logger   *slog.Logger
	Progress Progress
}

// Result summarizes a run.
type Result struct {
	Synced        int
	Unchanged     int
	Failed        int
	Conversations int
	Orphaned      int
	Interrupted   bool
}

// Engine drives one run.
type Engine struct {
	api    API
	writer *writer.Writer
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New builds an Engine for the given remote client and options.
func New(client API, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		api:    client,
		writer: writer.New(opts.Output, opts.Logger),
		opts:   opts,
		logger: opts.Logger,
		now:    time.Now,
	}
}

// Run performs one sync. Failures before any project is processed return a
// nil Result; from the project loop onward the Result is non-nil even on
// error, and the state snapshot and manifest are written regardless of how
// far the run got, so an aborted run loses nothing and the next one picks up
// where it stopped.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.opts.OrgID == "" {
		return nil, errors.New("organization ID is required")
	}
	if err := os.MkdirAll(e.opts.Output, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", e.opts.Output, err)
	}

	statePath := filepath.Join(e.opts.Output, state.Filename)
	prior, err := state.Load(statePath)
	if err != nil {
		// Corrupt state degrades to a first run; everything re-syncs.
		e.logger.Warn("sync state unreadable, treating as first run", "path", statePath, "error", err)
		prior = state.New()
	}

	listed, err := e.api.Projects(ctx, e.opts.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	matched := listed
	if e.opts.ProjectFilter != "" {
		matched = nil
		for _, p := range listed {
			if matchesFilter(p, e.opts.ProjectFilter) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			available := "none"
			if names := projectNames(listed); len(names) > 0 {
				available = strings.Join(names, ", ")
			}
			return nil, fmt.Errorf("no project matches %q (available: %s)", e.opts.ProjectFilter, available)
		}
		e.logger.Info("project filter active", "filter", e.opts.ProjectFilter, "matched", len(matched), "listed", len(listed))
	}

	result := &Result{}
	projects := make(map[string]state.ProjectState, len(listed))
	var runErr error

	for i, summary := range matched {
		if ctx.Err() != nil {
			result.Interrupted = true
			e.logger.Info("interrupted, writing partial progress")
			break
		}

		entry, err := e.syncProject(ctx, summary, prior, i, len(matched), result)
		if err != nil {
			var collision *writer.CollisionError
			switch {
			case errors.As(err, &collision):
				// Fatal for this project only; the run continues.
				e.logger.Error("slug collision, skipping project", "project", summary.Name, "error", err)
				result.Failed++
				continue
			case errors.Is(err, api.ErrNotFound):
				e.logger.Warn("project vanished between listing and fetch", "project", summary.Name)
				continue
			case errors.Is(err, context.Canceled):
				result.Interrupted = true
				e.logger.Info("interrupted, writing partial progress")
			case errors.Is(err, api.ErrSessionExpired):
				runErr = err
			default:
				runErr = fmt.Errorf("failed to sync project %s: %w", summary.Name, err)
			}
			break
		}
		projects[summary.UUID] = entry
	}

	// Listed projects that weren't processed this run (filtered out,
	// interrupted, or behind an abort) carry their previous state forward.
	for _, summary := range listed {
		if _, ok := projects[summary.UUID]; ok {
			continue
		}
		if prev, ok := prior.Projects[summary.UUID]; ok {
			prev.OrphanedAt = ""
			projects[summary.UUID] = prev
		}
	}

	// Projects known from prior state but gone from the listing are retained
	// as orphans; their local files are never deleted.
	stamp := e.now().UTC().Format(time.RFC3339)
	for _, id := range detect.Orphans(listed, prior) {
		entry := prior.Projects[id]
		if entry.OrphanedAt == "" {
			entry.OrphanedAt = stamp
			e.logger.Warn("project no longer exists remotely, keeping local copy", "project", entry.Name, "id", id)
		}
		projects[id] = entry
		result.Orphaned++
	}

	st := state.Snapshot(e.now(), projects)
	if err := st.Save(statePath); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			e.logger.Error("failed to save sync state", "error", err)
		}
	}
	if err := e.writer.WriteManifest(writer.BuildManifest(e.opts.OrgID, st)); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			e.logger.Error("failed to write manifest", "error", err)
		}
	}
	return result, runErr
}

// syncProject fetches one project and its documents, decides whether to
// write, and returns the project's next state entry.
func (e *Engine) syncProject(ctx context.Context, summary api.ProjectSummary, prior *state.State, index, total int, result *Result) (state.ProjectState, error) {
	project, err := e.api.Project(ctx, e.opts.OrgID, summary.UUID)
	if err != nil {
		return state.ProjectState{}, err
	}
	docs, err := e.api.ProjectDocs(ctx, e.opts.OrgID, summary.UUID)
	if err != nil {
		return state.ProjectState{}, err
	}

	decision := detect.Decision{Sync: true, Reason: "full sync"}
	if !e.opts.FullResync {
		decision = detect.Project(project, docs, prior)
	}
	e.step(index, total, project.Name, decision.Reason, decision.Sync)

	prev := prior.Projects[summary.UUID]
	var entry state.ProjectState
	if decision.Sync {
		res, err := e.writer.WriteProject(project, docs, e.now())
		if err != nil {
			return state.ProjectState{}, err
		}
		result.Synced++
		e.logger.Info("project synced",
			"project", project.Name, "reason", decision.Reason, "docs", len(docs))
		entry = state.ProjectState{
			Name:             project.Name,
			Slug:             res.Slug,
			UpdatedAt:        project.UpdatedAt,
			InstructionsHash: res.InstructionsHash,
			Docs:             res.Docs,
			Conversations:    prev.Conversations,
		}
	} else {
		result.Unchanged++
		e.logger.Debug("project unchanged", "project", project.Name)
		entry = prev
		entry.OrphanedAt = ""
	}

	if e.opts.Conversations {
		convs, err := e.syncConversations(ctx, project.UUID, filepath.Join(e.opts.Output, entry.Slug), entry.Conversations, result)
		if err != nil {
			return state.ProjectState{}, err
		}
		entry.Conversations = convs
	}
	return entry, nil
}

// syncConversations reconciles one project's conversations. Deciding uses
// only the cheap summary listing; full messages are fetched for changed
// conversations only. Unchanged conversations copy their previous index entry
// forward verbatim.
func (e *Engine) syncConversations(ctx context.Context, projectID, projectDir string, prev map[string]state.ConversationState, result *Result) (map[string]state.ConversationState, error) {
	summaries, err := e.api.ProjectConversations(ctx, e.opts.OrgID, projectID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			e.logger.Warn("conversation listing unavailable", "project", projectID)
			return prev, nil
		}
		return nil, err
	}

	next := make(map[string]state.ConversationState, len(summaries))
	used := make(map[string]bool, len(summaries))
	var pending []api.ConversationSummary

	// Register retained filenames first so new conversations cannot steal an
	// existing slot.
	for _, summary := range summaries {
		decision := detect.Conversation(summary, prev, e.opts.FullResync)
		if decision.Sync {
			pending = append(pending, summary)
			continue
		}
		entry := prev[summary.UUID]
		next[summary.UUID] = entry
		used[entry.Filename] = true
	}

	for _, summary := range pending {
		convo, err := e.api.Conversation(ctx, e.opts.OrgID, summary.UUID)
		if err != nil {
			if errors.Is(err, api.ErrSessionExpired) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			// Per-conversation trouble is a warning, not a run abort.
			e.logger.Warn("failed to fetch conversation, keeping previous copy",
				"conversation", summary.Name, "error", err)
			if entry, ok := prev[summary.UUID]; ok {
				next[summary.UUID] = entry
				used[entry.Filename] = true
			}
			continue
		}

		entry, ok, err := e.writer.WriteConversation(projectDir, convo, used, e.now())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		next[summary.UUID] = entry
		result.Conversations++
	}

	if len(next) > 0 {
		if err := e.writer.WriteConversationIndex(projectDir, next, e.now()); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func (e *Engine) step(index, total int, name, reason string, synced bool) {
	if e.opts.Progress != nil {
		e.opts.Progress.Step(index+1, total, name, reason, synced)
	}
}

func matchesFilter(p api.ProjectSummary, filter string) bool {
	if p.UUID == filter {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter))
}

func projectNames(listed []api.ProjectSummary) []string {
	names := make([]string, len(listed))
	for i, p := range listed {
		names[i] = p.Name
	}
	return names
}

package task

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ai4pkm/orchestrator/internal/atomicfile"
	"github.com/ai4pkm/orchestrator/internal/config"
)

// filePerm is the mode every task file is written with.
const filePerm = 0o644

// Trigger carries everything CreateTask needs to know about what caused an
// execution, independent of whether that execution starts immediately
// (IN_PROGRESS) or is queued for later (QUEUED).
type Trigger struct {
	Path      string // absolute trigger file path; empty for pure cron fires
	EventKind string
	Worker    string
	Created   time.Time
}

// Manager owns the tasks directory: every markdown read/write and the
// optional secondary index go through it.
type Manager struct {
	vaultRoot string
	tasksDir  string
	index     *Index // nil when orchestrator.index.enabled is false
}

// NewManager constructs a Manager. Pass a nil index to run purely off
// directory scans.
func NewManager(vaultRoot, tasksDir string, index *Index) *Manager {
	return &Manager{vaultRoot: vaultRoot, tasksDir: tasksDir, index: index}
}

// TasksDir returns the directory this manager reads and writes task files
// under.
func (m *Manager) TasksDir() string { return m.tasksDir }

// CreateTask writes a new task file in the requested status and returns its
// absolute path. Filename collisions on the same (date, abbr, title) get a
// monotonic "-2", "-3", ... suffix.
func (m *Manager) CreateTask(agent *config.AgentDefinition, trig Trigger, status Status) (string, error) {
	if err := os.MkdirAll(m.tasksDir, 0o755); err != nil {
		return "", fmt.Errorf("create tasks dir: %w", err)
	}

	titleSource := trig.Path
	if titleSource == "" {
		titleSource = agent.Name
	}
	filename := BuildFilename(trig.Created, agent.Abbreviation, titleSource)
	path, err := m.reserveFilename(filename)
	if err != nil {
		return "", err
	}

	fm := Frontmatter{
		Agent:    agent.Name,
		Status:   status,
		Priority: string(agent.Priority),
		Created:  trig.Created,
		Worker:   trig.Worker,
	}
	if trig.Path != "" {
		fm.InputFile = wikiLink(m.vaultRoot, trig.Path)
	}
	if status == StatusQueued {
		td := TriggerData{
			TriggerPath: trig.Path,
			EventKind:   trig.EventKind,
			AgentAbbr:   agent.Abbreviation,
		}
		b, err := json.Marshal(td)
		if err != nil {
			return "", fmt.Errorf("marshal trigger data: %w", err)
		}
		fm.TriggerDataJSON = string(b)
	}

	t := &Task{Path: path, Frontmatter: fm}
	if err := m.write(t); err != nil {
		return "", err
	}
	return path, nil
}

// reserveFilename finds the first unused "name", "name-2", "name-3", ...
// under tasksDir for the given candidate filename.
func (m *Manager) reserveFilename(filename string) (string, error) {
	candidate := filename
	for n := 1; ; n++ {
		if n > 1 {
			candidate = WithCollisionSuffix(filename, n)
		}
		path := filepath.Join(m.tasksDir, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
}

// wikiLink converts an absolute path into the vault's "[[relative/path]]"
// reference style, stripping the markdown extension.
func wikiLink(vaultRoot, absPath string) string {
	rel, err := filepath.Rel(vaultRoot, absPath)
	if err != nil {
		rel = absPath
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, ".md")
	return "[[" + rel + "]]"
}

// UpdateStatus rewrites a task's frontmatter, refusing any transition the
// lifecycle state machine does not permit. mutate lets callers set OutputFile
// alongside the status change (e.g. on PROCESSED).
func (m *Manager) UpdateStatus(path string, newStatus Status, mutate func(*Frontmatter)) error {
	t, err := Parse(path)
	if err != nil {
		return fmt.Errorf("read task for update: %w", err)
	}
	if !CanTransition(t.Frontmatter.Status, newStatus) {
		return &ErrIllegalTransition{From: t.Frontmatter.Status, To: newStatus}
	}
	t.Frontmatter.Status = newStatus
	if mutate != nil {
		mutate(&t.Frontmatter)
	}
	return m.write(t)
}

// AppendProcessLog appends a timestamped line to a task's Process Log
// section, inserting the section if it is somehow missing. Best-effort:
// callers must not fail the surrounding execution on error.
func (m *Manager) AppendProcessLog(path, line string) error {
	t, err := Parse(path)
	if err != nil {
		return fmt.Errorf("read task for log append: %w", err)
	}
	stamped := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), line)
	t.ProcessLog = append(t.ProcessLog, stamped)
	return m.write(t)
}

// write serializes t and atomically replaces its file, then best-effort
// upserts the secondary index.
func (m *Manager) write(t *Task) error {
	content, err := Render(t)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(t.Path, []byte(content), filePerm); err != nil {
		return err
	}
	if m.index != nil {
		if err := m.index.Upsert(t); err != nil {
			slog.Warn("task index upsert failed", "path", t.Path, "err", err)
		}
	}
	return nil
}

// QueuedTask is one row of ListQueued's result: enough to dequeue without
// re-parsing the whole file twice.
type QueuedTask struct {
	Path    string
	Task    *Task
	Trigger TriggerData
}

// ListQueued returns every QUEUED task, sorted by created ascending
//. Reads from the index when available
// and apparently fresh, falling back to a full directory scan otherwise.
func (m *Manager) ListQueued() ([]QueuedTask, error) {
	return m.ListByStatus(StatusQueued)
}

// ListByStatus returns every task with the given status, sorted by
// created ascending.
func (m *Manager) ListByStatus(status Status) ([]QueuedTask, error) {
	if m.index != nil {
		rows, err := m.index.ListByStatus(status)
		if err == nil {
			if len(rows) > 0 || m.tasksDirLooksEmpty() {
				return m.hydrate(rows)
			}
			// Zero rows on a non-empty tasks dir: the index may be stale.
			slog.Debug("task index returned zero rows on a non-empty tasks dir, reconciling", "status", status)
			if rerr := m.index.Reconcile(m.tasksDir); rerr == nil {
				if rows, err := m.index.ListByStatus(status); err == nil {
					return m.hydrate(rows)
				}
			}
		} else {
			slog.Warn("task index query failed, falling back to directory scan", "err", err)
		}
	}
	return m.scanByStatus(status)
}

func (m *Manager) tasksDirLooksEmpty() bool {
	entries, err := os.ReadDir(m.tasksDir)
	return err == nil && len(entries) == 0
}

func (m *Manager) hydrate(rows []IndexedPath) ([]QueuedTask, error) {
	out := make([]QueuedTask, 0, len(rows))
	for _, r := range rows {
		t, err := Parse(r.Path)
		if err != nil {
			continue // file vanished or is malformed; skip rather than fail the list
		}
		qt := QueuedTask{Path: r.Path, Task: t}
		_ = json.Unmarshal([]byte(t.Frontmatter.TriggerDataJSON), &qt.Trigger)
		out = append(out, qt)
	}
	return out, nil
}

func (m *Manager) scanByStatus(status Status) ([]QueuedTask, error) {
	entries, err := os.ReadDir(m.tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan tasks dir: %w", err)
	}

	var out []QueuedTask
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(m.tasksDir, e.Name())
		t, err := Parse(path)
		if err != nil {
			slog.Debug("skip unparsable task file", "path", path, "err", err)
			continue
		}
		if t.Frontmatter.Status != status {
			continue
		}
		qt := QueuedTask{Path: path, Task: t}
		_ = json.Unmarshal([]byte(t.Frontmatter.TriggerDataJSON), &qt.Trigger)
		out = append(out, qt)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Task.Frontmatter.Created, out[j].Task.Frontmatter.Created
		if ci.Equal(cj) {
			return out[i].Path < out[j].Path
		}
		return ci.Before(cj)
	})
	return out, nil
}

// RecoverOrphans transitions any non-terminal task (IN_PROGRESS or QUEUED)
// older than grace to FAILED with a restart note. A stale IN_PROGRESS task
// means the process died mid-execution; a stale QUEUED task means its
// triggering event is long gone and running it now would act on old state.
// Fresh QUEUED tasks are left untouched and stay eligible for draining.
// Returns the paths it recovered.
func (m *Manager) RecoverOrphans(grace time.Duration, now time.Time) ([]string, error) {
	var stale []QueuedTask
	for _, status := range []Status{StatusInProgress, StatusQueued} {
		found, err := m.scanByStatus(status)
		if err != nil {
			return nil, err
		}
		stale = append(stale, found...)
	}

	var recovered []string
	for _, qt := range stale {
		if now.Sub(qt.Task.Frontmatter.Created) < grace {
			continue
		}
		if err := m.UpdateStatus(qt.Path, StatusFailed, nil); err != nil {
			slog.Warn("failed to recover orphaned task", "path", qt.Path, "err", err)
			continue
		}
		if err := m.AppendProcessLog(qt.Path, "orphaned on restart: process exited without completing"); err != nil {
			slog.Warn("failed to annotate orphaned task", "path", qt.Path, "err", err)
		}
		recovered = append(recovered, qt.Path)
	}
	return recovered, nil
}

// ExistsNonTerminal reports whether a task file already exists for the
// given (date, abbr, trigger title) whose status is not yet terminal — the
// dedup rule that prevents firing the same (agent, trigger_path)
// twice while a prior execution is still running or queued.
func (m *Manager) ExistsNonTerminal(created time.Time, abbr, titleSource string) (bool, error) {
	filename := BuildFilename(created, abbr, titleSource)
	path := filepath.Join(m.tasksDir, filename)
	t, err := Parse(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !t.Frontmatter.Status.terminal(), nil
}

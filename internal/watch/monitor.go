// Package watch wraps a recursive fsnotify watch rooted at the vault and
// emits event.FileEvent values for file creation/modification,
// grounded on the module's existing recursive-watch bootstrap for
// continuous codebase monitoring.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ai4pkm/orchestrator/internal/event"
	"github.com/ai4pkm/orchestrator/internal/patterns"
	"github.com/fsnotify/fsnotify"
)

// Monitor watches a vault tree recursively and emits FileEvent values onto
// a bounded channel, consumed by the orchestrator core's event loop.
type Monitor struct {
	root       string
	extensions map[string]bool
	watcher    *fsnotify.Watcher
	events     chan event.FileEvent
	errs       chan error
	done       chan struct{}
}

// Option configures a Monitor at construction.
type Option func(*Monitor)

// WithExtensions adds extra extensions (beyond the default ".md") that
// should produce FileEvents, e.g. agents that watch ".txt" drops.
func WithExtensions(exts ...string) Option {
	return func(m *Monitor) {
		for _, e := range exts {
			m.extensions[normalizeExt(e)] = true
		}
	}
}

func normalizeExt(e string) string {
	if !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return strings.ToLower(e)
}

// New creates a Monitor rooted at root. Callers must call Start to begin
// watching and Close to release the underlying fsnotify watcher.
func New(root string, opts ...Option) (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	m := &Monitor{
		root:       root,
		extensions: map[string]bool{".md": true},
		watcher:    w,
		events:     make(chan event.FileEvent, 256),
		errs:       make(chan error, 16),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Events returns the channel FileEvents are published on.
func (m *Monitor) Events() <-chan event.FileEvent { return m.events }

// Errors returns the channel watcher errors are published on; a caller
// persistently seeing errors here should treat it as a WatcherError
// and attempt bounded reconnects.
func (m *Monitor) Errors() <-chan error { return m.errs }

// Start walks root adding every non-ignored directory to the watcher, then
// begins the event-translation loop in a background goroutine.
func (m *Monitor) Start() error {
	if err := m.addRecursive(m.root); err != nil {
		return fmt.Errorf("add watch paths: %w", err)
	}
	go m.loop()
	return nil
}

// Close stops the event loop and releases the fsnotify watcher.
func (m *Monitor) Close() error {
	close(m.done)
	return m.watcher.Close()
}

func (m *Monitor) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != dir && patterns.ShouldSkipDotEntry(name, true) {
			return filepath.SkipDir
		}
		if patterns.ShouldIgnoreDir(name) {
			return filepath.SkipDir
		}
		return m.watcher.Add(path)
	})
}

func (m *Monitor) loop() {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(ev)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			select {
			case m.errs <- err:
			default:
				slog.Warn("watch: dropped watcher error, errs channel full", "err", err)
			}
		}
	}
}

// handle translates one fsnotify.Event into at most one FileEvent. A
// rename that deposits a file into a watched directory already arrives
// here as fsnotify.Create on the destination path (fsnotify's own
// semantics), so no special-casing is needed to satisfy the "rename into
// watched dir = created" rule beyond mapping Create -> created
// and ignoring Rename/Remove at the source path.
func (m *Monitor) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if patterns.ShouldSkipDotEntry(name, false) && !m.extensions[strings.ToLower(filepath.Ext(name))] {
		return
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		info, err := os.Stat(ev.Name)
		if err == nil && info.IsDir() {
			if !patterns.ShouldIgnoreDir(name) && !patterns.ShouldSkipDotEntry(name, true) {
				if err := m.addRecursive(ev.Name); err != nil {
					slog.Warn("watch: failed to add new directory", "path", ev.Name, "err", err)
				}
			}
			return
		}
		m.emit(ev.Name, event.KindCreated)

	case ev.Op&fsnotify.Write != 0:
		m.emit(ev.Name, event.KindModified)

	// Remove, Rename (of the watched path itself), and Chmod carry no new
	// content for an agent to process; deletes are ignored, and a
	// rename-away needs no event here because the destination directory
	// (if also watched) will have already produced its own Create.
	default:
	}
}

func (m *Monitor) emit(path string, kind event.Kind) {
	if !m.extensions[strings.ToLower(filepath.Ext(path))] {
		return
	}
	fe := event.FileEvent{Path: path, Kind: kind, Time: time.Now()}
	select {
	case m.events <- fe:
	default:
		slog.Warn("watch: event queue full, dropping event", "path", path, "kind", kind)
	}
}

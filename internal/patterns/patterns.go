// Package patterns is the single source of truth for which directories and
// dot-entries a vault traversal skips. The file monitor's recursive walk
// consumes it; keeping the table here means a future vault scanner (doctor,
// reindexing) skips exactly the same noise.
package patterns

import "strings"

// IgnoredDirs are directories never watched or walked: application state
// and build output that churns without ever containing notes. Watching
// them would flood the event queue (editors rewrite .obsidian workspace
// state on every pane change) and self-trigger on our own logs/index.
var IgnoredDirs = map[string]bool{
	".orchestrator": true, // our own logs, index, crash reports
	".obsidian":     true,
	".trash":        true,
	".git":          true,
	"node_modules":  true,
	"vendor":        true,
	"__pycache__":   true,
}

// AllowedDotDirs are dot-directories that may legitimately hold notes and
// so are still watched. Empty by default; a vault layout that tucks
// watched content under a dot-directory can be added here.
var AllowedDotDirs = map[string]bool{}

// ShouldIgnoreDir reports whether a directory name is in the skip table.
func ShouldIgnoreDir(name string) bool {
	return IgnoredDirs[name]
}

// ShouldSkipDotEntry reports whether a dot-prefixed entry should be
// skipped during traversal. Dot-directories are skipped unless explicitly
// allowed; dotfiles are always skipped — a vault's dot-entries are app
// state, not notes.
func ShouldSkipDotEntry(name string, isDir bool) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}
	if isDir {
		return !AllowedDotDirs[name]
	}
	return true
}

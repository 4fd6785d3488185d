// Package project provides detection and context for vault boundaries.
//
// The orchestrator runs against a "vault": a directory tree of markdown
// notes and tasks. This package implements zero-config detection of that
// root so the orchestrator can be pointed at a subdirectory and still find
// the right place to watch and write tasks.
//
// Detection Strategy (Hierarchical Precedence):
//  1. Explicit Context (.orchestrator/): Highest priority. Respects existing config.
//  2. VCS Root (.git/): Medium priority fallback.
//  3. CWD: Lowest priority, used if unanchored.
package project

import "github.com/spf13/afero"

// MarkerType represents the type of vault marker that was detected.
type MarkerType int

const (
	// MarkerNone indicates no vault marker was found.
	MarkerNone MarkerType = iota

	// MarkerVault indicates a .orchestrator directory was found (highest priority).
	MarkerVault

	// MarkerGit indicates a .git directory was found.
	MarkerGit
)

// String returns a human-readable name for the marker type.
func (m MarkerType) String() string {
	switch m {
	case MarkerNone:
		return "none"
	case MarkerVault:
		return ".orchestrator"
	case MarkerGit:
		return ".git"
	default:
		return "unknown"
	}
}

// Context contains information about the detected vault boundary.
type Context struct {
	// RootPath is the absolute path to the detected vault root.
	RootPath string

	// MarkerType indicates which marker was used to identify the vault root.
	MarkerType MarkerType

	// GitRoot is the absolute path to the nearest .git directory (may differ
	// from RootPath). Empty string if no git repository was found.
	GitRoot string
}

// Detector defines the interface for vault root detection.
// This abstraction allows for easy testing with mock filesystems.
type Detector interface {
	// Detect finds the vault root starting from the given path.
	// It walks up the directory tree looking for vault markers.
	Detect(startPath string) (*Context, error)
}

// detector implements Detector using an afero filesystem.
type detector struct {
	fs afero.Fs
}

// NewDetector creates a new Detector using the provided filesystem.
// Use afero.NewOsFs() for real filesystem operations,
// or afero.NewMemMapFs() for testing.
func NewDetector(fs afero.Fs) Detector {
	return &detector{fs: fs}
}

// NewOsDetector creates a Detector using the real operating system filesystem.
func NewOsDetector() Detector {
	return NewDetector(afero.NewOsFs())
}

// Detect is a convenience function that detects the vault root from the
// given path using the real operating system filesystem.
func Detect(startPath string) (*Context, error) {
	return NewOsDetector().Detect(startPath)
}

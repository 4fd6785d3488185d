package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultPoliciesDir is the policies directory name relative to the
// vault's .orchestrator state directory.
const DefaultPoliciesDir = "policies"

// PolicyFile is one loaded Rego module.
type PolicyFile struct {
	// Path is the path to the policy file.
	Path string `json:"path"`
	// Name is the base name of the file without extension.
	Name string `json:"name"`
	// Content is the raw Rego source code.
	Content string `json:"content"`
}

// Loader reads .rego files from a policies directory. Filesystem access
// goes through afero so tests can run against afero.NewMemMapFs().
type Loader struct {
	fs      afero.Fs
	baseDir string // normally <vault>/.orchestrator/policies
}

// NewLoader creates a Loader over the given filesystem and directory.
func NewLoader(fs afero.Fs, baseDir string) *Loader {
	return &Loader{fs: fs, baseDir: baseDir}
}

// NewOsLoader creates a Loader over the real filesystem.
func NewOsLoader(baseDir string) *Loader {
	return NewLoader(afero.NewOsFs(), baseDir)
}

// LoadAll loads every .rego file under the directory, recursing into
// subdirectories, sorted by path so the engine's module set is the same on
// every start regardless of directory iteration order. A missing directory
// is not an error: it means the vault has no policies configured.
func (l *Loader) LoadAll() ([]*PolicyFile, error) {
	exists, err := afero.DirExists(l.fs, l.baseDir)
	if err != nil {
		return nil, fmt.Errorf("check policies directory: %w", err)
	}
	if !exists {
		return []*PolicyFile{}, nil
	}

	var policies []*PolicyFile
	err = afero.Walk(l.fs, l.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".rego") {
			return nil
		}
		p, err := l.loadFile(path)
		if err != nil {
			return fmt.Errorf("load policy %s: %w", path, err)
		}
		policies = append(policies, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk policies directory: %w", err)
	}

	sort.Slice(policies, func(i, j int) bool { return policies[i].Path < policies[j].Path })
	return policies, nil
}

func (l *Loader) loadFile(path string) (*PolicyFile, error) {
	content, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	return &PolicyFile{
		Path:    path,
		Name:    strings.TrimSuffix(filepath.Base(path), ".rego"),
		Content: string(content),
	}, nil
}

// GetPoliciesPath returns the policies directory for a vault root.
func GetPoliciesPath(vaultRoot string) string {
	return filepath.Join(vaultRoot, ".orchestrator", DefaultPoliciesDir)
}

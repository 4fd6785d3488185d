package poller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
)

// DirectoryDropPoller moves files matching Glob from StagingDir into
// TargetDir, modelling an external ingestion source that drops files onto
// disk outside of the vault's own watched tree (e.g. an export folder a
// separate process writes into).
type DirectoryDropPoller struct {
	PollerName string
	StagingDir string
	TargetDir  string
	Glob       glob.Glob
}

// NewDirectoryDropPoller compiles globPattern once at construction, matching
// the registry's compile-once-at-load discipline rather than
// recompiling it on every tick.
func NewDirectoryDropPoller(name, stagingDir, targetDir, globPattern string) (*DirectoryDropPoller, error) {
	g, err := glob.Compile(globPattern)
	if err != nil {
		return nil, fmt.Errorf("poller %q: compile glob %q: %w", name, globPattern, err)
	}
	return &DirectoryDropPoller{
		PollerName: name,
		StagingDir: stagingDir,
		TargetDir:  targetDir,
		Glob:       g,
	}, nil
}

// Name implements Poller.
func (p *DirectoryDropPoller) Name() string { return p.PollerName }

// Poll implements Poller: it lists StagingDir once, moves every matching
// file into TargetDir, and leaves non-matching entries untouched.
func (p *DirectoryDropPoller) Poll(ctx context.Context) error {
	entries, err := os.ReadDir(p.StagingDir)
	if err != nil {
		return fmt.Errorf("read staging dir %s: %w", p.StagingDir, err)
	}
	if err := os.MkdirAll(p.TargetDir, 0o755); err != nil {
		return fmt.Errorf("create target dir %s: %w", p.TargetDir, err)
	}

	for _, e := range entries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if e.IsDir() || !p.Glob.Match(e.Name()) {
			continue
		}
		src := filepath.Join(p.StagingDir, e.Name())
		dst := filepath.Join(p.TargetDir, e.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("move %s to %s: %w", src, dst, err)
		}
	}
	return nil
}

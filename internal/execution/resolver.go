package execution

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/orcherr"
)

// Resolver locates the binary for an agent's executor type.
type Resolver struct {
	// Overrides maps executor type -> explicit command path, from
	// orchestrator.executors.<name>.command.
	Overrides map[string]string
}

// NewResolver constructs a Resolver from the config-loaded executor
// overrides.
func NewResolver(overrides map[string]string) *Resolver {
	if overrides == nil {
		overrides = map[string]string{}
	}
	return &Resolver{Overrides: overrides}
}

// Resolve finds an executable for executorType, trying, in order: (a) the
// config override; (b) a PATH lookup of the canonical binary name; (c) on
// Windows, .cmd/.bat suffixes; (d) on Windows, %APPDATA%/npm/<name>.cmd.
// Returns orcherr.KindExecutorNotFound when every avenue fails.
func (r *Resolver) Resolve(executorType string) (string, error) {
	if override, ok := r.Overrides[executorType]; ok && override != "" {
		return override, nil
	}

	name := config.DefaultBinaryForExecutor(executorType)
	if name == "" {
		return "", orcherr.New(orcherr.KindExecutorNotFound, fmt.Sprintf("no canonical binary for executor %q; set orchestrator.executors.%s.command", executorType, executorType), nil)
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	if runtime.GOOS == "windows" {
		for _, ext := range []string{".cmd", ".bat"} {
			if path, err := exec.LookPath(name + ext); err == nil {
				return path, nil
			}
		}
		if appData := os.Getenv("APPDATA"); appData != "" {
			candidate := filepath.Join(appData, "npm", name+".cmd")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", orcherr.New(orcherr.KindExecutorNotFound, fmt.Sprintf("could not resolve executable for executor %q (tried override, PATH lookup of %q)", executorType, name), nil)
}

// Package cmd implements the orchestrator's cobra command tree. It is a
// thin layer over internal/orchestrator and internal/config: no dispatch
// or scheduling logic lives here, only flag parsing, vault resolution, and
// output formatting.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/ai4pkm/orchestrator/internal/project"
	"github.com/spf13/viper"
)

// resolveVaultRoot resolves the vault root: an explicit
// --vault flag wins, then the VAULT_PATH environment variable, then
// project.Detect's walk-up-to-.orchestrator-or-.git heuristic starting
// from the working directory.
func resolveVaultRoot() (string, error) {
	if v := viper.GetString("vault"); v != "" {
		return filepath.Abs(v)
	}
	if v := os.Getenv("VAULT_PATH"); v != "" {
		return filepath.Abs(v)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	ctx, err := project.Detect(cwd)
	if err != nil {
		return cwd, nil
	}
	return ctx.RootPath, nil
}

func configPathOverride() string {
	return viper.GetString("config")
}

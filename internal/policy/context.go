package policy

import (
	"path/filepath"
	"strings"
)

// NewDispatchInput builds the DispatchInput that Core passes to the policy
// engine before reserving an execution slot.
func NewDispatchInput(agentName, abbr, triggerPath, eventKind, vaultRoot string) *DispatchInput {
	return &DispatchInput{
		Agent:       agentName,
		Abbr:        abbr,
		TriggerPath: NormalizePath(RelativeToVault(vaultRoot, triggerPath)),
		EventKind:   eventKind,
		VaultRoot:   vaultRoot,
	}
}

// RelativeToVault converts an absolute trigger path into a vault-relative
// one for policy evaluation; Rego policies should never see host paths.
func RelativeToVault(vaultRoot, path string) string {
	if path == "" || vaultRoot == "" {
		return path
	}
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(vaultRoot, path)
	if err != nil {
		return path
	}
	return rel
}

// NormalizePath normalizes a file path for consistent policy evaluation:
// forward slashes, no leading "./".
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(path, "./")
}

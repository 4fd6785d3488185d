// Package config provides centralized configuration constants for the orchestrator.
// All default values should be defined here to ensure a single source of truth.
package config

// Executor type constants. These name the supported AI-CLI front ends that
// the execution manager knows how to resolve and invoke as subprocesses
// (the AgentDefinition.Executor enum).
const (
	ExecutorClaude = "claude_code"
	ExecutorCodex  = "codex_cli"
	ExecutorGemini = "gemini_cli"
	ExecutorCustom = "custom_script"
)

// Default binary names per executor type, used when the
// orchestrator.executors.<name>.command override is absent.
const (
	DefaultClaudeBinary = "claude"
	DefaultCodexBinary  = "codex"
	DefaultGeminiBinary = "gemini"
)

// DefaultBinaryForExecutor returns the conventional binary name for a given
// executor type string, or "" if the type is unrecognized or is
// custom_script (which has no canonical binary and must always be supplied
// via an executors.custom_script.command override).
func DefaultBinaryForExecutor(executorType string) string {
	switch executorType {
	case ExecutorClaude:
		return DefaultClaudeBinary
	case ExecutorCodex:
		return DefaultCodexBinary
	case ExecutorGemini:
		return DefaultGeminiBinary
	default:
		return ""
	}
}

// Orchestration defaults, overridable via config file or flags.
const (
	DefaultPollIntervalSeconds    = 1.0
	DefaultMaxGlobalConcurrency   = 3
	DefaultMaxPerAgentConcurrency = 3
	DefaultTaskTimeoutSeconds     = 1800
	DefaultOrphanGraceSeconds     = 300
)

package config

import (
	"fmt"
	"regexp"
	"time"
)

// OutputKind describes how an agent's output relates to its input file.
type OutputKind string

const (
	OutputKindNewFile    OutputKind = "new_file"
	OutputKindUpdateFile OutputKind = "update_file"
)

// Priority is an agent's dispatch priority tier.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// PostProcessKind names a supported post-processing step.
type PostProcessKind string

const (
	PostProcessNone                 PostProcessKind = ""
	PostProcessRemoveTriggerContent PostProcessKind = "remove_trigger_content"
)

var abbrInParens = regexp.MustCompile(`\(([A-Z]{3,4})\)\s*$`)

// DeriveAbbreviation extracts the 3-4 uppercase-letter abbreviation from the
// last parenthesised group of an agent name, e.g. "Email Ingest (EIC)" -> "EIC".
func DeriveAbbreviation(name string) (string, error) {
	m := abbrInParens.FindStringSubmatch(name)
	if m == nil {
		return "", fmt.Errorf("agent %q: could not derive a 3-4 uppercase-letter abbreviation from a trailing (ABBR) group", name)
	}
	return m[1], nil
}

// AgentDefinition is the fully resolved, immutable-after-load description of
// one agent node, produced by applying the defaults cascade and resolving
// the prompt path against the prompts directory.
type AgentDefinition struct {
	Name         string        `validate:"required"`
	Abbreviation string        `validate:"required,len=3|len=4"`
	PromptPath   string        `validate:"required"`
	InputPaths   []string      // empty means cron/manual-only
	OutputPath   string        `validate:"required"`
	OutputKind   OutputKind    `validate:"required,oneof=new_file update_file"`
	Executor     string        `validate:"required,oneof=claude_code gemini_cli codex_cli custom_script"`
	Timeout      time.Duration `validate:"required"`
	MaxParallel  int           `validate:"gte=1"`
	Priority     Priority      `validate:"required,oneof=low medium high"`

	TriggerExcludeGlob  string
	TriggerContentRegex string
	PostProcess         PostProcessKind
	Cron                string
	CreateTask          bool
	PolicyPackage       string
}

// HasCron reports whether the agent fires on a schedule in addition to (or
// instead of) file events.
func (a *AgentDefinition) HasCron() bool {
	return a.Cron != ""
}

// RequiresPolicyGate reports whether dispatch must pass a Rego evaluation
// before a slot is reserved.
func (a *AgentDefinition) RequiresPolicyGate() bool {
	return a.PolicyPackage != ""
}

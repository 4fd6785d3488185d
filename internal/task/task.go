// Package task manages the orchestrator's task files: one markdown file per
// execution attempt, persisted under <vault>/<tasks_dir>/ with a YAML
// frontmatter schema and an append-only process log.
package task

import (
	"fmt"
	"time"
)

// Status is a task's lifecycle state. The state machine permits
// QUEUED -> IN_PROGRESS -> {PROCESSED, FAILED, TIMEOUT, NEEDS_INPUT}, plus
// QUEUED -> FAILED for orphan recovery of stale queued tasks.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusProcessed  Status = "PROCESSED"
	StatusFailed     Status = "FAILED"
	StatusTimeout    Status = "TIMEOUT"
	StatusNeedsInput Status = "NEEDS_INPUT"
)

// terminal reports whether a status has no further legal transitions.
func (s Status) terminal() bool {
	switch s {
	case StatusProcessed, StatusFailed, StatusTimeout, StatusNeedsInput:
		return true
	default:
		return false
	}
}

// legalTransitions enumerates the lifecycle state machine. A transition not listed
// here is refused by UpdateStatus.
var legalTransitions = map[Status]map[Status]bool{
	StatusQueued:     {StatusInProgress: true, StatusFailed: true},
	StatusInProgress: {StatusProcessed: true, StatusFailed: true, StatusTimeout: true, StatusNeedsInput: true},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
// A status transitioning to itself (idempotent re-write, e.g. appending a
// process-log line without a status change) is always legal.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return legalTransitions[from][to]
}

// ErrIllegalTransition is returned by UpdateStatus when the requested
// transition is not in the state machine.
type ErrIllegalTransition struct {
	From, To Status
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal task status transition %s -> %s", e.From, e.To)
}

// TriggerData is the minimal information persisted on a QUEUED task so that
// Core can reconstruct its ExecutionContext on dequeue without re-evaluating
// trigger_content_regex.
type TriggerData struct {
	TriggerPath string `json:"trigger_path,omitempty"`
	EventKind   string `json:"event_kind"`
	AgentAbbr   string `json:"agent_abbr"`
}

// Frontmatter is the YAML document at the top of a task file.
type Frontmatter struct {
	Agent           string    `yaml:"agent"`
	Status          Status    `yaml:"status"`
	Priority        string    `yaml:"priority"`
	Created         time.Time `yaml:"created"`
	InputFile       string    `yaml:"input_file,omitempty"`
	OutputFile      string    `yaml:"output_file,omitempty"`
	Worker          string    `yaml:"worker,omitempty"`
	TriggerDataJSON string    `yaml:"trigger_data_json,omitempty"`
}

// Task is an in-memory representation of a parsed task file.
type Task struct {
	Path        string
	Frontmatter Frontmatter
	ProcessLog  []string
	EvalLog     []string
}

// Abbreviation extracts the ABBR token out of a task's agent name, falling
// back to the whole name if it isn't of the "Full Name (ABBR)" shape.
func (t *Task) Abbreviation() string {
	return abbrevFromAgentField(t.Frontmatter.Agent)
}

func abbrevFromAgentField(agent string) string {
	open, close := -1, -1
	for i := len(agent) - 1; i >= 0; i-- {
		if agent[i] == ')' && close == -1 {
			close = i
		}
		if agent[i] == '(' && close != -1 {
			open = i
			break
		}
	}
	if open == -1 || close == -1 || close <= open {
		return agent
	}
	return agent[open+1 : close]
}

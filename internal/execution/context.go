package execution

import (
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
)

// Context is everything one dispatch needs to run an agent.
type Context struct {
	Agent       *config.AgentDefinition
	TriggerPath string // absolute; empty for a pure cron/manual fire with no file
	EventKind   string
	VaultRoot   string
	PromptPath  string
	OutputPath  string // absolute
	StartTime   time.Time
	Worker      string
	ExecutionID string
}

package telemetry

// Lifecycle event names. The payload policy is enforced at the call sites:
// an event may carry an agent abbreviation, an event kind, a terminal
// status, or a count — never a file path, a task title, or note content.
const (
	// EventOrchestratorStarted fires once when the event loop starts.
	// Props: agent_count.
	EventOrchestratorStarted = "orchestrator_started"

	// EventOrchestratorStopped fires once on clean shutdown.
	EventOrchestratorStopped = "orchestrator_stopped"

	// EventAgentDispatched fires when a slot is reserved and a worker
	// starts. Props: agent_abbr, kind.
	EventAgentDispatched = "agent_dispatched"

	// EventExecutionCompleted fires when a worker reaches a terminal
	// status. Props: agent_abbr, status.
	EventExecutionCompleted = "execution_completed"
)

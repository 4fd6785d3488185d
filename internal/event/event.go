// Package event defines the unified event shapes that flow from the File
// Monitor, Cron Scheduler, Poller Manager, and manual CLI triggers into the
// orchestrator core's single event queue.
package event

import "time"

// Kind identifies what produced a FileEvent.
type Kind string

const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
	KindCron     Kind = "cron"
	KindManual   Kind = "manual"
)

// FileEvent is the single shape fused onto the core event queue from every
// source. AgentName is set only for Cron and Manual events, bypassing the
// registry's path/content matching entirely.
type FileEvent struct {
	Path      string
	Kind      Kind
	Time      time.Time
	AgentName string
}

// IsDirected reports whether this event already names its target agent
// (cron tick or manual trigger), skipping path-based matching.
func (e FileEvent) IsDirected() bool {
	return e.AgentName != ""
}

// Package cron computes cron next-fire times for agent dispatch.
// Parsing uses robfig/cron/v3's standard 5-field Parser; firing itself is
// driven explicitly by the orchestrator core's own tick rather than the
// library's internal goroutine scheduler, so a single Core loop iteration
// stays the unit of "at most once" catch-up semantics.
package cron

import (
	"fmt"
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// entry tracks one cron-bearing agent's compiled schedule and next fire time.
type entry struct {
	agent    *config.AgentDefinition
	schedule cron.Schedule
	nextFire time.Time
}

// Scheduler holds the compiled schedules for every cron-bearing agent and
// advances them one Core tick at a time via Tick.
type Scheduler struct {
	entries []*entry
}

// New compiles a Scheduler from the subset of agents that declare a cron
// expression. now anchors the first next_fire computation.
func New(agents []*config.AgentDefinition, now time.Time) (*Scheduler, error) {
	s := &Scheduler{}
	for _, a := range agents {
		if !a.HasCron() {
			continue
		}
		sched, err := parser.Parse(a.Cron)
		if err != nil {
			return nil, fmt.Errorf("agent %q: parse cron %q: %w", a.Name, a.Cron, err)
		}
		s.entries = append(s.entries, &entry{
			agent:    a,
			schedule: sched,
			nextFire: sched.Next(now),
		})
	}
	return s, nil
}

// Due is an agent whose schedule has fired as of a Tick call.
type Due struct {
	Agent *config.AgentDefinition
	Fired time.Time
}

// Tick reports every agent whose next_fire is at or before now, then
// recomputes each fired entry's next_fire from now (not from the missed
// fire time), so a Core that was blocked past several fire times only
// fires once per agent per Tick call rather than flooding the dispatch
// queue with a backlog.
func (s *Scheduler) Tick(now time.Time) []Due {
	var due []Due
	for _, e := range s.entries {
		if now.Before(e.nextFire) {
			continue
		}
		due = append(due, Due{Agent: e.agent, Fired: e.nextFire})
		e.nextFire = e.schedule.Next(now)
	}
	return due
}

// Len reports how many cron-bearing agents are scheduled.
func (s *Scheduler) Len() int { return len(s.entries) }

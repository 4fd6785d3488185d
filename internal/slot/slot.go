// Package slot implements the orchestrator's single process-wide
// ExecutionSlotTable: two counters, one mutex, atomic
// check-and-increment. This is the one piece of required shared mutable
// state in the whole system — every other coordination point goes
// through task files on disk.
package slot

import "sync"

// Table tracks global and per-agent in-flight execution counts.
type Table struct {
	mu        sync.Mutex
	global    int
	globalMax int
	perAgent  map[string]int
}

// NewTable constructs a Table with the given global concurrency cap.
func NewTable(globalMax int) *Table {
	return &Table{globalMax: globalMax, perAgent: make(map[string]int)}
}

// Reserve atomically checks both caps and, if both have room, increments
// both counters in one critical section — splitting the check from the
// increment leaks slots under bursty load.
func (t *Table) Reserve(abbr string, agentMax int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.global >= t.globalMax {
		return false
	}
	if t.perAgent[abbr] >= agentMax {
		return false
	}
	t.global++
	t.perAgent[abbr]++
	return true
}

// Release decrements both counters. Callers must invoke this exactly once
// per successful Reserve, on every exit path (success, failure, timeout,
// panic) — see the deferred release in the orchestrator's worker wrapper.
func (t *Table) Release(abbr string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.global > 0 {
		t.global--
	}
	if t.perAgent[abbr] > 0 {
		t.perAgent[abbr]--
	}
}

// GlobalInFlight returns the current global in-flight count.
func (t *Table) GlobalInFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.global
}

// AgentInFlight returns the current in-flight count for one agent
// abbreviation.
func (t *Table) AgentInFlight(abbr string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.perAgent[abbr]
}

// SetGlobalMax updates the global concurrency cap, used by the `run
// --max-concurrent` CLI override.
func (t *Table) SetGlobalMax(max int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.globalMax = max
}

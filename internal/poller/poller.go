// Package poller runs independent interval-driven ingestion sources.
// Each Poller owns its own ticker, decoupled from the orchestrator core's
// event loop; a failing poller is logged and retried on the next tick
// rather than propagating up and disrupting dispatch.
package poller

import (
	"context"
	"log/slog"
	"time"
)

// Poller is one independent polling source.
type Poller interface {
	// Name identifies the poller in logs.
	Name() string
	// Poll runs one iteration. A returned error is logged; it never stops
	// the poller's ticker.
	Poll(ctx context.Context) error
}

// Manager runs a fixed set of Pollers, each on its own interval timer.
type Manager struct {
	pollers []entry
}

type entry struct {
	p        Poller
	interval time.Duration
}

// NewManager constructs a Manager with no pollers registered yet.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a poller with its own polling interval.
func (m *Manager) Register(p Poller, interval time.Duration) {
	m.pollers = append(m.pollers, entry{p: p, interval: interval})
}

// Len reports how many pollers are registered.
func (m *Manager) Len() int { return len(m.pollers) }

// Start launches one goroutine per registered poller. It returns
// immediately; all goroutines exit once ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, e := range m.pollers {
		go run(ctx, e.p, e.interval)
	}
}

func run(ctx context.Context, p Poller, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				slog.Warn("poller: iteration failed", "poller", p.Name(), "err", err)
			}
		}
	}
}

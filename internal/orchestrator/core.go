// Package orchestrator wires the config loader, agent registry, task
// manager, execution manager, slot table, cron scheduler, poller manager,
// policy gate, and telemetry client into the single coordinator loop.
// It has no goroutine-per-subsystem internal scheduler
// of its own beyond what each subsystem already owns (watch.Monitor,
// poller.Manager) — Core's own loop stays a single goroutine, matching the
// module's "one coordinator, worker-per-execution" concurrency model.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/cron"
	"github.com/ai4pkm/orchestrator/internal/event"
	"github.com/ai4pkm/orchestrator/internal/execution"
	"github.com/ai4pkm/orchestrator/internal/poller"
	"github.com/ai4pkm/orchestrator/internal/policy"
	"github.com/ai4pkm/orchestrator/internal/registry"
	"github.com/ai4pkm/orchestrator/internal/slot"
	"github.com/ai4pkm/orchestrator/internal/task"
	"github.com/ai4pkm/orchestrator/internal/telemetry"
	"github.com/ai4pkm/orchestrator/internal/util"
	"github.com/ai4pkm/orchestrator/internal/watch"
)

// eventQueueCapacity bounds the in-memory event queue that Trigger publishes
// onto; Core drains it, alongside the File Monitor's own events channel,
// every loop iteration.
const eventQueueCapacity = 256

// Orchestrator is the assembled coordinator: each subsystem owns one field
// here, constructed once by New and driven by Run's event loop.
type Orchestrator struct {
	cfg *config.Resolved

	registry  *registry.Registry
	tasks     *task.Manager
	exec      *execution.Manager
	slots     *slot.Table
	cronSched *cron.Scheduler
	pollers   *poller.Manager
	policies  map[string]*policy.Engine
	tele      telemetry.Client

	monitor    *watch.Monitor
	eventQueue chan event.FileEvent

	wg sync.WaitGroup
}

// New assembles every subsystem from a resolved configuration. It does not
// start anything: Run does.
func New(cfg *config.Resolved) (*Orchestrator, error) {
	reg, err := registry.New(cfg.VaultRoot, cfg.Agents)
	if err != nil {
		return nil, err
	}

	var idx *task.Index
	if cfg.IndexEnabled {
		dbPath := filepath.Join(cfg.VaultRoot, ".orchestrator", "index.db")
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		idx, err = task.OpenIndex(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open task index: %w", err)
		}
	}
	tasks := task.NewManager(cfg.VaultRoot, cfg.TasksDir, idx)

	execMgr := execution.NewManager(execution.NewResolver(cfg.Executors), cfg.LogsDir, cfg.Secrets.EnvPairs())
	slots := slot.NewTable(cfg.MaxConcurrent)

	cronSched, err := cron.New(reg.CronAgents(), time.Now())
	if err != nil {
		return nil, err
	}

	policies, err := buildPolicyEngines(cfg)
	if err != nil {
		return nil, err
	}

	tele := telemetryClient(cfg)

	monitor, err := watch.New(cfg.VaultRoot, watch.WithExtensions(extraExtensions(cfg.Agents)...))
	if err != nil {
		return nil, fmt.Errorf("create file monitor: %w", err)
	}

	pollerMgr, err := buildPollers(cfg)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:        cfg,
		registry:   reg,
		tasks:      tasks,
		exec:       execMgr,
		slots:      slots,
		cronSched:  cronSched,
		pollers:    pollerMgr,
		policies:   policies,
		tele:       tele,
		monitor:    monitor,
		eventQueue: make(chan event.FileEvent, eventQueueCapacity),
	}, nil
}

// buildPolicyEngines builds one Engine per distinct policy_package an agent
// declares. Each Engine loads every .rego file under the vault's policies
// directory itself, so the directory is read once per package.
func buildPolicyEngines(cfg *config.Resolved) (map[string]*policy.Engine, error) {
	engines := map[string]*policy.Engine{}
	for _, a := range cfg.Agents {
		if !a.RequiresPolicyGate() {
			continue
		}
		if _, ok := engines[a.PolicyPackage]; ok {
			continue
		}
		eng, err := policy.NewEngine(policy.EngineConfig{
			VaultRoot:     cfg.VaultRoot,
			PolicyPackage: a.PolicyPackage,
		})
		if err != nil {
			return nil, config.NewConfigError(fmt.Sprintf("agent %q: load policy_package %q", a.Name, a.PolicyPackage), err)
		}
		if eng.PolicyCount() == 0 {
			return nil, config.NewConfigError(fmt.Sprintf("agent %q declares policy_package %q but no .rego files were found under %s", a.Name, a.PolicyPackage, policy.GetPoliciesPath(cfg.VaultRoot)), nil)
		}
		engines[a.PolicyPackage] = eng
	}
	return engines, nil
}

func telemetryClient(cfg *config.Resolved) telemetry.Client {
	if !cfg.Telemetry.Enabled {
		return telemetry.NewNoopClient()
	}
	apiKey := cfg.Secrets.PostHogAPIKeyOverride
	if apiKey == "" {
		return telemetry.NewNoopClient()
	}
	tcfg, err := telemetry.Load()
	if err != nil {
		slog.Warn("telemetry: failed to load local config, disabling", "err", err)
		return telemetry.NewNoopClient()
	}
	tcfg.Enable()
	if err := tcfg.Save(); err != nil {
		slog.Debug("telemetry: could not persist local state", "err", err)
	}
	client, err := telemetry.NewPostHogClient(telemetry.ClientConfig{APIKey: apiKey, Config: tcfg})
	if err != nil {
		slog.Warn("telemetry: failed to initialize client, disabling", "err", err)
		return telemetry.NewNoopClient()
	}
	return client
}

func buildPollers(cfg *config.Resolved) (*poller.Manager, error) {
	mgr := poller.NewManager()
	for name, pc := range cfg.Pollers {
		interval := time.Duration(pc.IntervalSeconds) * time.Second
		if interval <= 0 {
			interval = time.Duration(config.DefaultPollIntervalSeconds * float64(time.Second))
		}
		switch pc.Type {
		case "directory_drop":
			p, err := poller.NewDirectoryDropPoller(name, pc.StagingDir, pc.TargetDir, pc.Glob)
			if err != nil {
				return nil, config.NewConfigError(fmt.Sprintf("poller %q", name), err)
			}
			mgr.Register(p, interval)
		case "stub", "":
			mgr.Register(&poller.StubPoller{PollerName: name}, interval)
		default:
			return nil, config.NewConfigError(fmt.Sprintf("poller %q: unknown type %q", name, pc.Type), nil)
		}
	}
	return mgr, nil
}

// Run starts every subsystem and blocks on the coordinator loop until ctx
// is cancelled (SIGINT/SIGTERM from the caller), then drains in-flight
// workers for up to cfg.ShutdownGrace before returning.
func (o *Orchestrator) Run(ctx context.Context) error {
	recovered, err := o.tasks.RecoverOrphans(o.cfg.OrphanGrace, time.Now())
	if err != nil {
		slog.Warn("orphan recovery scan failed", "err", err)
	}
	for _, path := range recovered {
		slog.Warn("recovered orphaned task", "path", path)
	}

	if err := o.monitor.Start(); err != nil {
		return fmt.Errorf("start file monitor: %w", err)
	}
	defer func() { _ = o.monitor.Close() }()

	o.pollers.Start(ctx)

	o.tele.Track(telemetry.EventOrchestratorStarted, telemetry.Properties{
		"agent_count": len(o.registry.Agents()),
	})
	defer func() { _ = o.tele.Close() }()

	o.loop(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), o.cfg.ShutdownGrace)
	defer cancel()
	o.waitForWorkers(shutdownCtx)

	o.tele.Track(telemetry.EventOrchestratorStopped, nil)
	return nil
}

// loop is the coordinator: drain the event queue (and the
// file monitor's own channel, fused onto it) until poll_interval elapses,
// tick the cron scheduler, then drain one queued task — all within a single
// goroutine, so no two dispatch decisions ever race each other.
func (o *Orchestrator) loop(ctx context.Context) {
	for {
		deadline := time.Now().Add(o.cfg.PollInterval)
		for {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			select {
			case <-ctx.Done():
				return
			case ev := <-o.eventQueue:
				o.dispatch(ev)
			case ev := <-o.monitor.Events():
				o.dispatch(ev)
			case err := <-o.monitor.Errors():
				slog.Warn("file monitor error", "err", err)
			case <-time.After(remaining):
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		for _, due := range o.cronSched.Tick(time.Now()) {
			o.dispatch(event.FileEvent{Kind: event.KindCron, Time: due.Fired, AgentName: due.Agent.Name})
		}

		o.drainOneQueuedTask()
	}
}

// Trigger enqueues a manual event directed at one agent, used by both the
// `trigger` CLI command and any future external integration.
func (o *Orchestrator) Trigger(agentNameOrAbbr, path string) error {
	agent := o.registry.Lookup(agentNameOrAbbr)
	if agent == nil {
		return fmt.Errorf("no agent matches %q", agentNameOrAbbr)
	}
	o.eventQueue <- event.FileEvent{Path: path, Kind: event.KindManual, Time: time.Now(), AgentName: agent.Name}
	return nil
}

// TriggerSync is the one-shot half of the `trigger` command: it
// dispatches a single agent directly, without starting the file monitor,
// cron scheduler, or poller manager, then blocks until the spawned worker
// (if any) finishes or cfg.ShutdownGrace elapses. Unlike Trigger, which
// only enqueues onto a running coordinator's loop, this is meant for a
// process that starts, dispatches once, and exits.
func (o *Orchestrator) TriggerSync(ctx context.Context, agentNameOrAbbr, path string) error {
	agent := o.registry.Lookup(agentNameOrAbbr)
	if agent == nil {
		return fmt.Errorf("no agent matches %q", agentNameOrAbbr)
	}
	recovered, err := o.tasks.RecoverOrphans(o.cfg.OrphanGrace, time.Now())
	if err != nil {
		slog.Warn("orphan recovery scan failed", "err", err)
	}
	for _, p := range recovered {
		slog.Warn("recovered orphaned task", "path", p)
	}

	ev := event.FileEvent{Path: path, Kind: event.KindManual, Time: time.Now(), AgentName: agent.Name}
	o.dispatchOne(agent, ev)

	shutdownCtx, cancel := context.WithTimeout(ctx, o.cfg.ShutdownGrace)
	defer cancel()
	o.waitForWorkers(shutdownCtx)
	return nil
}

// Registry exposes the loaded agent registry, used by list-agents/doctor.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

func (o *Orchestrator) waitForWorkers(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("shutdown grace period elapsed with workers still running")
	}
}

func newExecutionID() string {
	return util.NewExecutionID()
}

// extraExtensions scans every agent's glob-pattern input_paths entries for
// a literal trailing extension (e.g. "Ingest/**/*.txt" -> ".txt") so the
// File Monitor watches those files too, not just ".md". Plain directory entries and patterns with no dot in their
// final segment contribute nothing; ".md" itself is always on by default.
func extraExtensions(agents []*config.AgentDefinition) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range agents {
		for _, p := range a.InputPaths {
			ext := filepath.Ext(p)
			if ext == "" || ext == ".md" || strings.ContainsAny(ext, "*?[{") {
				continue
			}
			if !seen[ext] {
				seen[ext] = true
				out = append(out, ext)
			}
		}
	}
	return out
}

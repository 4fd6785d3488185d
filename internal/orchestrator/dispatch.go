package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/event"
	"github.com/ai4pkm/orchestrator/internal/execution"
	"github.com/ai4pkm/orchestrator/internal/logger"
	"github.com/ai4pkm/orchestrator/internal/orcherr"
	"github.com/ai4pkm/orchestrator/internal/policy"
	"github.com/ai4pkm/orchestrator/internal/task"
	"github.com/ai4pkm/orchestrator/internal/telemetry"
)

// dispatch handles one FileEvent: match agents,
// skip duplicates of an already non-terminal task, evaluate the policy gate,
// reserve a slot, and either start a worker immediately or fall back to
// queuing the task for drainOneQueuedTask to pick up later.
func (o *Orchestrator) dispatch(ev event.FileEvent) {
	logger.SetLastEvent(fmt.Sprintf("path=%s kind=%s", ev.Path, ev.Kind))
	for _, agent := range o.registry.Match(ev) {
		o.dispatchOne(agent, ev)
	}
}

func (o *Orchestrator) dispatchOne(agent *config.AgentDefinition, ev event.FileEvent) {
	titleSource := ev.Path
	if titleSource == "" {
		titleSource = agent.Name
	}
	exists, err := o.tasks.ExistsNonTerminal(ev.Time, agent.Abbreviation, titleSource)
	if err != nil {
		slog.Warn("dispatch: dedup check failed", "agent", agent.Name, "err", err)
	}
	if exists {
		slog.Debug("dispatch: skipped, non-terminal task already exists", "agent", agent.Name, "path", ev.Path)
		return
	}

	if agent.RequiresPolicyGate() {
		allowed, err := o.evaluatePolicy(agent, ev)
		if err != nil {
			slog.Warn("dispatch: policy evaluation failed, denying by default", "agent", agent.Name, "err", err)
			return
		}
		if !allowed {
			return
		}
	}

	trig := task.Trigger{Path: ev.Path, EventKind: string(ev.Kind), Worker: agent.Executor, Created: ev.Time}

	if !o.slots.Reserve(agent.Abbreviation, agent.MaxParallel) {
		if _, err := o.tasks.CreateTask(agent, trig, task.StatusQueued); err != nil {
			slog.Warn("dispatch: failed to queue task", "agent", agent.Name, "err", err)
		}
		return
	}

	path, err := o.tasks.CreateTask(agent, trig, task.StatusInProgress)
	if err != nil {
		o.slots.Release(agent.Abbreviation)
		slog.Warn("dispatch: failed to create task", "agent", agent.Name, "err", err)
		return
	}

	logger.SetLastDispatchAgent(agent.Abbreviation)
	o.tele.Track(telemetry.EventAgentDispatched, telemetry.Properties{"agent_abbr": agent.Abbreviation, "kind": string(ev.Kind)})
	o.startWorker(agent, trig, path)
}

// evaluatePolicy builds the dispatch input and queries the agent's engine.
// A deny result is logged at info level and reported as "not allowed"; it
// is not itself an execution failure since no execution was attempted.
func (o *Orchestrator) evaluatePolicy(agent *config.AgentDefinition, ev event.FileEvent) (bool, error) {
	eng := o.policies[agent.PolicyPackage]
	input := policy.NewDispatchInput(agent.Name, agent.Abbreviation, ev.Path, string(ev.Kind), o.cfg.VaultRoot)
	decision, err := eng.Evaluate(context.Background(), input)
	if err != nil {
		return false, err
	}
	for _, w := range decision.Warnings {
		slog.Warn("policy warning", "agent", agent.Name, "warning", w)
	}
	if decision.IsDenied() {
		slog.Info("policy denied dispatch", "agent", agent.Name, "trigger_path", ev.Path, "violations", decision.ViolationsJSON())
		return false, nil
	}
	return true, nil
}

// drainOneQueuedTask promotes queued work as capacity frees: the oldest
// QUEUED task whose agent currently has a free slot is promoted to
// IN_PROGRESS and started. At most one task is promoted per loop iteration
// so a deep backlog can't starve event dispatch.
func (o *Orchestrator) drainOneQueuedTask() {
	queued, err := o.tasks.ListQueued()
	if err != nil {
		slog.Warn("drain: list queued tasks failed", "err", err)
		return
	}

	for _, qt := range queued {
		agent := o.registry.Lookup(qt.Trigger.AgentAbbr)
		if agent == nil {
			agent = o.registry.Lookup(qt.Task.Abbreviation())
		}
		if agent == nil {
			slog.Warn("drain: queued task references unknown agent", "path", qt.Path, "abbr", qt.Trigger.AgentAbbr)
			continue
		}
		if !o.slots.Reserve(agent.Abbreviation, agent.MaxParallel) {
			continue
		}

		if err := o.tasks.UpdateStatus(qt.Path, task.StatusInProgress, nil); err != nil {
			o.slots.Release(agent.Abbreviation)
			slog.Warn("drain: failed to promote queued task", "path", qt.Path, "err", err)
			continue
		}

		trig := task.Trigger{Path: qt.Trigger.TriggerPath, EventKind: qt.Trigger.EventKind, Worker: agent.Executor, Created: qt.Task.Frontmatter.Created}
		o.startWorker(agent, trig, qt.Path)
		return
	}
}

// startWorker runs one execution to completion in its own goroutine,
// releasing the reserved slot unconditionally and folding any panic into a
// FAILED task rather than letting it escape into the coordinator.
func (o *Orchestrator) startWorker(agent *config.AgentDefinition, trig task.Trigger, taskPath string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.slots.Release(agent.Abbreviation)
		defer logger.RecoverWorker(func(r any) {
			slog.Error("worker panic recovered", "agent", agent.Name, "task", taskPath, "panic", r)
			_ = o.tasks.UpdateStatus(taskPath, task.StatusFailed, nil)
			_ = o.tasks.AppendProcessLog(taskPath, "worker panicked and was recovered by the coordinator")
		})

		outputPath := agent.OutputPath
		if !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(o.cfg.VaultRoot, outputPath)
		}
		if err := os.MkdirAll(outputPath, 0o755); err != nil {
			slog.Warn("worker: failed to create output dir", "agent", agent.Name, "path", outputPath, "err", err)
		}
		ec := execution.Context{
			Agent:       agent,
			TriggerPath: trig.Path,
			EventKind:   trig.EventKind,
			VaultRoot:   o.cfg.VaultRoot,
			PromptPath:  agent.PromptPath,
			OutputPath:  outputPath,
			StartTime:   time.Now(),
			Worker:      trig.Worker,
			ExecutionID: newExecutionID(),
		}

		outcome := o.exec.Execute(context.Background(), ec, taskPath)
		o.finishTask(agent, taskPath, outcome)
	}()
}

func (o *Orchestrator) finishTask(agent *config.AgentDefinition, taskPath string, outcome execution.Outcome) {
	err := o.tasks.UpdateStatus(taskPath, outcome.Status, func(fm *task.Frontmatter) {
		if outcome.OutputFile != "" {
			fm.OutputFile = outcome.OutputFile
		}
	})
	var illegal *task.ErrIllegalTransition
	if errors.As(err, &illegal) && illegal.From == task.StatusNeedsInput {
		// The executor already wrote NEEDS_INPUT into the task file while
		// running; that self-reported status wins over our PROCESSED.
		err = nil
	}
	if err != nil {
		slog.Warn("finish: failed to update task status", "path", taskPath, "err", err)
	}

	if outcome.Err != nil {
		line := outcome.Err.Error()
		if kind, ok := orcherr.KindOf(outcome.Err); ok {
			line = string(kind) + ": " + line
		}
		if err := o.tasks.AppendProcessLog(taskPath, line); err != nil {
			slog.Warn("finish: failed to append process log", "path", taskPath, "err", err)
		}
	}
	if outcome.PostProcessErr != nil {
		if err := o.tasks.AppendProcessLog(taskPath, "post-process: "+outcome.PostProcessErr.Error()); err != nil {
			slog.Warn("finish: failed to append post-process log", "path", taskPath, "err", err)
		}
	}

	o.tele.Track(telemetry.EventExecutionCompleted, telemetry.Properties{"agent_abbr": agent.Abbreviation, "status": string(outcome.Status)})
}

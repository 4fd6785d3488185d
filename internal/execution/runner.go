// Package execution owns the subprocess execution path: resolving
// the executor binary, composing the output-contract prompt, running and
// capturing the subprocess, enforcing the timeout/kill sequence,
// validating outputs, and running post-processing.
package execution

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ai4pkm/orchestrator/internal/orcherr"
	"github.com/ai4pkm/orchestrator/internal/task"
	"github.com/ai4pkm/orchestrator/internal/util"
	"golang.org/x/sync/errgroup"
)

// killGrace is how long a timed-out subprocess is given to exit cleanly
// after being asked to terminate, before it is killed outright.
const killGrace = 5 * time.Second

// Outcome is the terminal result of one Execute call.
type Outcome struct {
	Status         task.Status
	Err            error
	LogPath        string
	OutputFile     string
	PostProcessErr error // set when post-processing failed; never demotes Status
}

// Manager runs agent executions. It has no knowledge of dispatch or
// concurrency bookkeeping — that is the slot.Table and Core's job; Manager
// only knows how to run one already-reserved execution to completion.
type Manager struct {
	Resolver *Resolver
	LogsDir  string
	Env      []string // extra KEY=VALUE pairs appended to every subprocess (secrets)
}

// NewManager constructs an execution Manager.
func NewManager(resolver *Resolver, logsDir string, env []string) *Manager {
	return &Manager{Resolver: resolver, LogsDir: logsDir, Env: env}
}

// Execute runs one agent dispatch end to end and returns its terminal
// Outcome. Every error is folded into Outcome.Err, with Status FAILED
// unless a more specific status (TIMEOUT) was already set. Panics are not
// recovered here; the caller's worker wrapper handles those.
func (m *Manager) Execute(ctx context.Context, ec Context, taskPath string) Outcome {
	outcome, err := m.execute(ctx, ec, taskPath)
	if err != nil {
		outcome.Err = err
		if outcome.Status == "" {
			outcome.Status = task.StatusFailed
		}
	}
	return outcome
}

func (m *Manager) execute(ctx context.Context, ec Context, taskPath string) (Outcome, error) {
	binPath, err := m.Resolver.Resolve(ec.Agent.Executor)
	if err != nil {
		return Outcome{Status: task.StatusFailed}, err
	}

	prompt, err := buildPromptContract(ec, taskPath)
	if err != nil {
		return Outcome{Status: task.StatusFailed}, err
	}

	if err := os.MkdirAll(m.LogsDir, 0o755); err != nil {
		return Outcome{Status: task.StatusFailed}, fmt.Errorf("create logs dir: %w", err)
	}
	logPath := m.logFilePath(ec)
	logFile, err := os.Create(logPath)
	if err != nil {
		return Outcome{Status: task.StatusFailed, LogPath: logPath}, fmt.Errorf("create log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	cmd := exec.Command(binPath)
	cmd.Dir = ec.VaultRoot
	cmd.Env = append(os.Environ(), m.Env...)
	cmd.Stdin = strings.NewReader(prompt)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{Status: task.StatusFailed, LogPath: logPath}, fmt.Errorf("attach stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{Status: task.StatusFailed, LogPath: logPath}, fmt.Errorf("attach stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Outcome{Status: task.StatusFailed, LogPath: logPath}, orcherr.New(orcherr.KindExecutorNotFound, "start subprocess", err)
	}

	// Drain both pipes concurrently into the same log file: reading them
	// sequentially risks a pipe-buffer deadlock if the child fills one
	// pipe while waiting for the other to be read.
	var logMu sync.Mutex
	var drain errgroup.Group
	drain.Go(func() error { return copyLocked(&logMu, logFile, stdout) })
	drain.Go(func() error { return copyLocked(&logMu, logFile, stderr) })

	waitDone := make(chan error, 1)
	go func() {
		_ = drain.Wait()
		waitDone <- cmd.Wait()
	}()

	select {
	case err := <-waitDone:
		return m.finish(ec, taskPath, logPath, err)
	case <-time.After(ec.Agent.Timeout):
		terminate(cmd)
		select {
		case <-waitDone:
		case <-time.After(killGrace):
			kill(cmd)
			// A grandchild of the killed process can still hold the pipes
			// open; close our read ends so the drains end now.
			_ = stdout.Close()
			_ = stderr.Close()
			<-waitDone
		}
		return Outcome{Status: task.StatusTimeout, LogPath: logPath}, orcherr.New(orcherr.KindTimeout, fmt.Sprintf("exceeded %s timeout", ec.Agent.Timeout), nil)
	case <-ctx.Done():
		terminate(cmd)
		<-waitDone
		return Outcome{Status: task.StatusFailed, LogPath: logPath}, ctx.Err()
	}
}

func (m *Manager) finish(ec Context, taskPath, logPath string, waitErr error) (Outcome, error) {
	if waitErr != nil {
		return Outcome{Status: task.StatusFailed, LogPath: logPath}, orcherr.New(orcherr.KindNonZeroExit, "subprocess exited non-zero", waitErr)
	}

	outputFile, err := validateOutput(ec)
	if err != nil {
		return Outcome{Status: task.StatusFailed, LogPath: logPath}, err
	}

	var postErr error
	if err := runPostProcess(ec); err != nil {
		// Non-fatal: the execution still succeeded.
		postErr = err
	}

	return Outcome{Status: task.StatusProcessed, LogPath: logPath, OutputFile: outputFile, PostProcessErr: postErr}, nil
}

func (m *Manager) logFilePath(ec Context) string {
	shortID := util.ShortID(ec.ExecutionID, util.DefaultShortIDLength)
	name := fmt.Sprintf("%s-%s-%s.log", ec.StartTime.Format("2006-01-02T15-04-05"), ec.Agent.Abbreviation, shortID)
	return filepath.Join(m.LogsDir, name)
}

// copyLocked streams one pipe into the shared log file, interleaving whole
// reads under the mutex so stdout and stderr lines don't shear mid-write.
// A read error (normally io.EOF when the pipe closes) ends the drain; the
// subprocess's own exit status is what decides success, not the pipes.
func copyLocked(mu *sync.Mutex, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			mu.Lock()
			_, _ = dst.Write(buf[:n])
			mu.Unlock()
		}
		if err != nil {
			return nil
		}
	}
}

func terminate(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if runtime.GOOS == "windows" {
		_ = cmd.Process.Kill()
		return
	}
	_ = cmd.Process.Signal(os.Interrupt)
}

func kill(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}


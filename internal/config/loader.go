package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// ConfigFileName is the default basename of the orchestrator configuration
// file, resolved relative to the vault root.
const ConfigFileName = "orchestrator.yaml"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Resolved is the fully decoded and validated configuration, ready for the
// orchestrator core to consume. It is immutable after Load returns.
type Resolved struct {
	VaultRoot     string
	PromptsDir    string
	TasksDir      string
	LogsDir       string
	MaxConcurrent int
	PollInterval  time.Duration
	OrphanGrace   time.Duration
	ShutdownGrace time.Duration
	IndexEnabled  bool
	Executors     map[string]string
	Agents        []*AgentDefinition
	Pollers       map[string]PollerConfig
	Telemetry     TelemetryConfig
	Secrets       *Secrets
}

// Load reads orchestrator.yaml (or the path override) under vaultRoot,
// applies the defaults cascade, resolves every agent's prompt path, and
// validates the result. Any failure is returned as a *orcherr.Error tagged
// KindConfigError, so startup fails fast rather than limping along.
func Load(vaultRoot, pathOverride string) (*Resolved, error) {
	configPath := pathOverride
	if configPath == "" {
		configPath = filepath.Join(vaultRoot, ConfigFileName)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("ORCH")
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); err != nil {
		return nil, NewConfigError(fmt.Sprintf("read %s", configPath), err)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, NewConfigError(fmt.Sprintf("parse %s", configPath), err)
	}

	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, NewConfigError("decode orchestrator.yaml", err)
	}

	applyTopLevelDefaults(&doc)

	promptsDir := filepath.Join(vaultRoot, doc.Orchestrator.PromptsDir)
	agents, err := resolveAgents(doc, promptsDir)
	if err != nil {
		return nil, err
	}

	secrets, err := LoadSecrets(vaultRoot)
	if err != nil {
		return nil, err
	}

	executors := map[string]string{}
	for name, override := range doc.Orchestrator.Executors {
		executors[name] = override.Command
	}

	r := &Resolved{
		VaultRoot:     vaultRoot,
		PromptsDir:    promptsDir,
		TasksDir:      filepath.Join(vaultRoot, doc.Orchestrator.TasksDir),
		LogsDir:       filepath.Join(vaultRoot, doc.Orchestrator.LogsDir),
		MaxConcurrent: doc.Orchestrator.MaxConcurrent,
		PollInterval:  time.Duration(doc.Orchestrator.PollInterval * float64(time.Second)),
		OrphanGrace:   time.Duration(doc.Orchestrator.OrphanGrace) * time.Second,
		ShutdownGrace: time.Duration(doc.Orchestrator.ShutdownGrace) * time.Second,
		IndexEnabled:  doc.Orchestrator.Index.Enabled != nil && *doc.Orchestrator.Index.Enabled,
		Executors:     executors,
		Agents:        agents,
		Pollers:       doc.Pollers,
		Telemetry:     doc.Telemetry,
		Secrets:       secrets,
	}
	return r, nil
}

// applyTopLevelDefaults fills in the hardcoded-default tier for any
// orchestrator.* field the YAML omitted.
func applyTopLevelDefaults(doc *Document) {
	o := &doc.Orchestrator
	if o.PromptsDir == "" {
		o.PromptsDir = "Prompts"
	}
	if o.TasksDir == "" {
		o.TasksDir = "Tasks"
	}
	if o.LogsDir == "" {
		o.LogsDir = ".orchestrator/logs"
	}
	if o.MaxConcurrent == 0 {
		o.MaxConcurrent = DefaultMaxGlobalConcurrency
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollIntervalSeconds
	}
	if o.OrphanGrace == 0 {
		o.OrphanGrace = DefaultOrphanGraceSeconds
	}
	if o.ShutdownGrace == 0 {
		o.ShutdownGrace = 30
	}
	if o.Index.Enabled == nil {
		enabled := true
		o.Index.Enabled = &enabled
	}
}

func resolveAgents(doc Document, promptsDir string) ([]*AgentDefinition, error) {
	var agents []*AgentDefinition
	seenAbbr := map[string]string{}

	for _, node := range doc.Nodes {
		if node.Type != "agent" {
			continue
		}
		merged := applyDefaults(node, doc.Defaults)

		if merged.Name == "" {
			return nil, NewConfigError("node missing required 'name'", nil)
		}
		abbr, err := DeriveAbbreviation(merged.Name)
		if err != nil {
			return nil, NewConfigError("resolve abbreviation", err)
		}
		if prior, dup := seenAbbr[abbr]; dup {
			return nil, NewConfigError(fmt.Sprintf("duplicate abbreviation %q used by %q and %q", abbr, prior, merged.Name), nil)
		}
		seenAbbr[abbr] = merged.Name

		promptPath, err := resolvePromptPath(promptsDir, abbr)
		if err != nil {
			return nil, NewConfigError(fmt.Sprintf("agent %q", merged.Name), err)
		}

		if merged.Cron != "" {
			if _, err := cronParser.Parse(merged.Cron); err != nil {
				return nil, NewConfigError(fmt.Sprintf("agent %q: invalid cron expression %q", merged.Name, merged.Cron), err)
			}
		}

		timeout := DefaultTaskTimeoutSeconds
		if merged.TimeoutSeconds > 0 {
			timeout = merged.TimeoutSeconds
		}
		maxParallel := DefaultMaxPerAgentConcurrency
		if merged.MaxParallel > 0 {
			maxParallel = merged.MaxParallel
		}
		priority := merged.Priority
		if priority == "" {
			priority = string(PriorityMedium)
		}
		outputKind := merged.OutputKind
		if outputKind == "" {
			outputKind = string(OutputKindNewFile)
		}
		executor := merged.Executor
		if executor == "" {
			executor = ExecutorClaude
		}
		createTask := true
		if merged.CreateTask != nil {
			createTask = *merged.CreateTask
		}

		def := &AgentDefinition{
			Name:                merged.Name,
			Abbreviation:        abbr,
			PromptPath:          promptPath,
			InputPaths:          append([]string{}, merged.InputPath...),
			OutputPath:          merged.OutputPath,
			OutputKind:          OutputKind(outputKind),
			Executor:            executor,
			Timeout:             time.Duration(timeout) * time.Second,
			MaxParallel:         maxParallel,
			Priority:            Priority(priority),
			TriggerExcludeGlob:  merged.TriggerExcludeGlob,
			TriggerContentRegex: merged.TriggerContentRegex,
			PostProcess:         PostProcessKind(merged.PostProcess),
			Cron:                merged.Cron,
			CreateTask:          createTask,
			PolicyPackage:       merged.PolicyPackage,
		}
		// Agents with no input_paths are legal: they fire only on cron or
		// manual triggers.
		if len(def.InputPaths) == 0 {
			def.InputPaths = nil
		}
		if err := validateAgent(def); err != nil {
			return nil, NewConfigError(fmt.Sprintf("agent %q", merged.Name), err)
		}
		agents = append(agents, def)
	}

	return agents, nil
}

var structValidator = validator.New()

func validateAgent(def *AgentDefinition) error {
	return structValidator.Struct(def)
}

// resolvePromptPath scans promptsDir for a file whose name contains
// "(ABBR)", e.g. "Email Ingest (EIC).md". The first match in directory
// order wins; a second match is reported as a ConfigError.
func resolvePromptPath(promptsDir, abbr string) (string, error) {
	entries, err := os.ReadDir(promptsDir)
	if err != nil {
		return "", fmt.Errorf("read prompts dir %s: %w", promptsDir, err)
	}

	needle := "(" + abbr + ")"
	var match string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		if strings.Contains(e.Name(), needle) {
			if match != "" {
				return "", fmt.Errorf("multiple prompt files match %s: %s and %s", needle, match, e.Name())
			}
			match = e.Name()
		}
	}
	if match == "" {
		return "", fmt.Errorf("no prompt file matching %s under %s", needle, promptsDir)
	}
	return filepath.Join(promptsDir, match), nil
}

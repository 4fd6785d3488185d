package config

// NodeConfig is the raw, tagged-union shape of one entry under `nodes:` in
// orchestrator.yaml as decoded by viper. Only `type: agent` is implemented;
// the tag is kept so future node kinds (e.g. transforms) can be added
// without reshaping the top-level document.
type NodeConfig struct {
	Type                string   `mapstructure:"type"`
	Name                string   `mapstructure:"name"`
	InputPath           []string `mapstructure:"input_path"`
	OutputPath          string   `mapstructure:"output_path"`
	OutputKind          string   `mapstructure:"output_kind"`
	Executor            string   `mapstructure:"executor"`
	TimeoutSeconds      int      `mapstructure:"timeout_seconds"`
	MaxParallel         int      `mapstructure:"max_parallel"`
	Priority            string   `mapstructure:"priority"`
	TriggerExcludeGlob  string   `mapstructure:"trigger_exclude_glob"`
	TriggerContentRegex string   `mapstructure:"trigger_content_regex"`
	PostProcess         string   `mapstructure:"post_process"`
	Cron                string   `mapstructure:"cron"`
	CreateTask          *bool    `mapstructure:"create_task"`
	PolicyPackage       string   `mapstructure:"policy_package"`
}

// NodeDefaults holds the `defaults:` block applied to any field a node
// leaves unset.
type NodeDefaults struct {
	OutputKind     string `mapstructure:"output_kind"`
	Executor       string `mapstructure:"executor"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxParallel    int    `mapstructure:"max_parallel"`
	Priority       string `mapstructure:"priority"`
	CreateTask     *bool  `mapstructure:"create_task"`
}

// ExecutorOverride lets orchestrator.yaml pin an executor to an explicit
// binary instead of relying on PATH lookup.
type ExecutorOverride struct {
	Command string `mapstructure:"command"`
}

// IndexConfig controls the optional sqlite secondary index. Enabled
// is a pointer so the loader can tell "omitted" (default to true) apart
// from an explicit "enabled: false".
type IndexConfig struct {
	Enabled *bool `mapstructure:"enabled"`
}

// TelemetryConfig controls opt-in anonymous telemetry.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// PollerConfig is the per-poller block under `pollers.<name>`.
type PollerConfig struct {
	Type            string `mapstructure:"type"`
	StagingDir      string `mapstructure:"staging_dir"`
	TargetDir       string `mapstructure:"target_dir"`
	Glob            string `mapstructure:"glob"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

// OrchestratorSection is the `orchestrator:` top-level block.
type OrchestratorSection struct {
	PromptsDir    string                      `mapstructure:"prompts_dir"`
	TasksDir      string                      `mapstructure:"tasks_dir"`
	LogsDir       string                      `mapstructure:"logs_dir"`
	MaxConcurrent int                         `mapstructure:"max_concurrent"`
	PollInterval  float64                     `mapstructure:"poll_interval"`
	Executors     map[string]ExecutorOverride `mapstructure:"executors"`
	OrphanGrace   int                         `mapstructure:"orphan_grace"`
	ShutdownGrace int                         `mapstructure:"shutdown_grace"`
	Index         IndexConfig                 `mapstructure:"index"`
}

// Document is the full decoded shape of orchestrator.yaml.
type Document struct {
	Orchestrator OrchestratorSection     `mapstructure:"orchestrator"`
	Defaults     NodeDefaults            `mapstructure:"defaults"`
	Nodes        []NodeConfig            `mapstructure:"nodes"`
	Pollers      map[string]PollerConfig `mapstructure:"pollers"`
	Telemetry    TelemetryConfig         `mapstructure:"telemetry"`
}

// applyDefaults overwrites unset fields on n with the defaults block. A
// field counts as unset when it is the type's zero value — matching the
// "node value > defaults block > hardcoded default" precedence.
func applyDefaults(n NodeConfig, d NodeDefaults) NodeConfig {
	if n.OutputKind == "" {
		n.OutputKind = d.OutputKind
	}
	if n.Executor == "" {
		n.Executor = d.Executor
	}
	if n.TimeoutSeconds == 0 {
		n.TimeoutSeconds = d.TimeoutSeconds
	}
	if n.MaxParallel == 0 {
		n.MaxParallel = d.MaxParallel
	}
	if n.Priority == "" {
		n.Priority = d.Priority
	}
	if n.CreateTask == nil {
		n.CreateTask = d.CreateTask
	}
	return n
}

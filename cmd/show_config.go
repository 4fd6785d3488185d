package cmd

import (
	"fmt"
	"sort"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var showConfigCmd = &cobra.Command{
	Use:   "show-config",
	Short: "Dump the resolved effective configuration",
	Long: `show-config loads orchestrator.yaml, applies the defaults cascade,
and prints the fully resolved configuration that the orchestrator would
run with. Secret values are never printed.`,
	RunE: runShowConfig,
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}

// effectiveConfig mirrors config.Resolved for display purposes, replacing
// the secrets map with a redacted key list so an operator can confirm
// which secrets were loaded without ever seeing their values.
type effectiveConfig struct {
	VaultRoot     string                `yaml:"vault_root"`
	PromptsDir    string                `yaml:"prompts_dir"`
	TasksDir      string                `yaml:"tasks_dir"`
	LogsDir       string                `yaml:"logs_dir"`
	MaxConcurrent int                   `yaml:"max_concurrent"`
	PollInterval  string                `yaml:"poll_interval"`
	OrphanGrace   string                `yaml:"orphan_grace"`
	ShutdownGrace string                `yaml:"shutdown_grace"`
	IndexEnabled  bool                  `yaml:"index_enabled"`
	TelemetryOn   bool                  `yaml:"telemetry_enabled"`
	Executors     map[string]string     `yaml:"executors,omitempty"`
	Agents        []effectiveAgentEntry `yaml:"agents"`
	SecretKeys    []string              `yaml:"secret_keys_loaded,omitempty"`
}

type effectiveAgentEntry struct {
	Name          string `yaml:"name"`
	Abbreviation  string `yaml:"abbreviation"`
	Executor      string `yaml:"executor"`
	OutputKind    string `yaml:"output_kind"`
	Priority      string `yaml:"priority"`
	MaxParallel   int    `yaml:"max_parallel"`
	Cron          string `yaml:"cron,omitempty"`
	PolicyPackage string `yaml:"policy_package,omitempty"`
}

func runShowConfig(cmd *cobra.Command, args []string) error {
	vault, err := resolveVaultRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(vault, configPathOverride())
	if err != nil {
		return err
	}

	out := effectiveConfig{
		VaultRoot:     cfg.VaultRoot,
		PromptsDir:    cfg.PromptsDir,
		TasksDir:      cfg.TasksDir,
		LogsDir:       cfg.LogsDir,
		MaxConcurrent: cfg.MaxConcurrent,
		PollInterval:  cfg.PollInterval.String(),
		OrphanGrace:   cfg.OrphanGrace.String(),
		ShutdownGrace: cfg.ShutdownGrace.String(),
		IndexEnabled:  cfg.IndexEnabled,
		TelemetryOn:   cfg.Telemetry.Enabled,
		Executors:     cfg.Executors,
	}
	for k := range cfg.Secrets.Raw {
		out.SecretKeys = append(out.SecretKeys, k)
	}
	sort.Strings(out.SecretKeys)
	for _, a := range cfg.Agents {
		out.Agents = append(out.Agents, effectiveAgentEntry{
			Name:          a.Name,
			Abbreviation:  a.Abbreviation,
			Executor:      a.Executor,
			OutputKind:    string(a.OutputKind),
			Priority:      string(a.Priority),
			MaxParallel:   a.MaxParallel,
			Cron:          a.Cron,
			PolicyPackage: a.PolicyPackage,
		})
	}

	enc, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal effective config: %w", err)
	}
	fmt.Print(string(enc))
	return nil
}

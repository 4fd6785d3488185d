package cmd

import (
	"fmt"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/registry"
	"github.com/ai4pkm/orchestrator/internal/ui"
	"github.com/spf13/cobra"
)

var listAgentsCmd = &cobra.Command{
	Use:   "list-agents",
	Short: "Print the resolved agent table",
	Long: `list-agents loads orchestrator.yaml, resolves every agent's prompt
path and defaults, and renders the result as a table.`,
	RunE: runListAgents,
}

func init() {
	rootCmd.AddCommand(listAgentsCmd)
}

func runListAgents(cmd *cobra.Command, args []string) error {
	vault, err := resolveVaultRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(vault, configPathOverride())
	if err != nil {
		return err
	}
	reg, err := registry.New(cfg.VaultRoot, cfg.Agents)
	if err != nil {
		return err
	}

	agents := reg.Agents()
	if len(agents) == 0 {
		fmt.Println("no agents configured")
		return nil
	}

	t := &ui.Table{
		Headers: []string{"ABBR", "NAME", "EXECUTOR", "INPUTS", "CRON", "PARALLEL"},
	}
	for _, a := range agents {
		inputs := "-"
		if len(a.InputPaths) > 0 {
			inputs = fmt.Sprintf("%d path(s)", len(a.InputPaths))
		}
		cronExpr := "-"
		if a.HasCron() {
			cronExpr = a.Cron
		}
		t.Rows = append(t.Rows, []string{
			a.Abbreviation,
			a.Name,
			a.Executor,
			inputs,
			cronExpr,
			fmt.Sprintf("%d", a.MaxParallel),
		})
	}
	fmt.Print(t.Render())
	return nil
}

package cmd

import (
	"context"
	"fmt"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/orchestrator"
	"github.com/ai4pkm/orchestrator/internal/ui"
	"github.com/spf13/cobra"
)

var triggerFile string

var triggerCmd = &cobra.Command{
	Use:   "trigger <agent-name-or-abbr>",
	Short: "Fire one agent as a one-shot manual event",
	Long: `trigger builds a manual FileEvent for the named agent (matched
by full name or ABBR) and dispatches it once, synchronously, without
starting the file monitor, cron scheduler, or poller manager.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrigger,
}

func init() {
	triggerCmd.Flags().StringVar(&triggerFile, "file", "", "trigger_path passed to the matched agent")
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, args []string) error {
	vault, err := resolveVaultRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(vault, configPathOverride())
	if err != nil {
		return err
	}

	orc, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}

	return ui.RunWithSpinner(fmt.Sprintf("dispatching %s", args[0]), func() error {
		return orc.TriggerSync(context.Background(), args[0], triggerFile)
	})
}

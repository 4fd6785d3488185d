package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/orchestrator"
	"github.com/spf13/cobra"
)

var runMaxConcurrent int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the vault and dispatch agents until interrupted",
	Long: `run starts the file monitor, cron scheduler, and poller manager and
blocks, dispatching agents as their triggers fire. It stops on SIGINT or
SIGTERM, waiting up to shutdown_grace for in-flight workers to finish.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxConcurrent, "max-concurrent", 0, "override orchestrator.max_concurrent")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	vault, err := resolveVaultRoot()
	if err != nil {
		return err
	}

	cfg, err := config.Load(vault, configPathOverride())
	if err != nil {
		return err
	}
	if runMaxConcurrent > 0 {
		cfg.MaxConcurrent = runMaxConcurrent
	}

	orc, err := orchestrator.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("orchestrator starting", "vault", vault, "agents", len(orc.Registry().Agents()))
	if err := orc.Run(ctx); err != nil {
		return fmt.Errorf("orchestrator run: %w", err)
	}
	slog.Info("orchestrator stopped")
	return nil
}

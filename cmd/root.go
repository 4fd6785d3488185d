package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/ai4pkm/orchestrator/internal/logger"
	"github.com/ai4pkm/orchestrator/internal/orcherr"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is the application version.
// Set via ldflags at build time: -ldflags "-X github.com/ai4pkm/orchestrator/cmd.version=1.0.0"
// Defaults to "dev" for local development builds.
var version = "dev"

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Event-driven dispatcher for markdown-native AI agents",
	Long: `orchestrator watches a vault of markdown notes, dispatches matching
files and cron schedules to AI agent executors, and tracks each run as a
task file alongside the notes themselves.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and parses the
// command line. It only needs to run once, from main.main.
func Execute() {
	initCrashHandler()
	defer logger.HandlePanic()

	rootCmd.SuggestionsMinimumDistance = 2

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a command error onto an exit code: 2 for a
// configuration error, 1 for anything else. A clean run falls through
// Execute without calling this at all, leaving the default 0.
func exitCodeFor(err error) int {
	if orcherr.Is(err, orcherr.KindConfigError) {
		return 2
	}
	return 1
}

// initCrashHandler points the crash logger at the resolved vault's
// .orchestrator directory before any subcommand runs, so a panic anywhere
// in the call tree still lands a crash report in the right place.
func initCrashHandler() {
	logger.SetVersion(version)
	if vault, err := resolveVaultRoot(); err == nil {
		logger.SetBasePath(vault + "/.orchestrator")
	}
	if len(os.Args) > 1 {
		logger.SetCommand(strings.Join(os.Args[1:], " "))
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().String("config", "", "path to orchestrator.yaml (default: <vault>/orchestrator.yaml)")
	rootCmd.PersistentFlags().String("vault", "", "vault root (default: $VAULT_PATH, else detected from .orchestrator/.git)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("vault", rootCmd.PersistentFlags().Lookup("vault"))

	rootCmd.SetHelpTemplate(`{{if .Long}}
{{.Long}}
{{else}}
  {{.Short}}
{{end}}
  Usage: {{.UseLine}}
{{if .HasAvailableSubCommands}}
  Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}    {{rpad .Name .NamePadding }} {{.Short}}
{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}
  Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

  Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`)
}

// initLogging sets the default slog handler: a leveled text handler
// for interactive runs, a JSON handler when DEBUG is set or stderr isn't a
// terminal (matching a log aggregator's expectations over a human's).
func initLogging() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if os.Getenv("DEBUG") != "" || !isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

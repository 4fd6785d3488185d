package cmd

import (
	"fmt"
	"os"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/execution"
	"github.com/ai4pkm/orchestrator/internal/orchestrator"
	"github.com/ai4pkm/orchestrator/internal/project"
	"github.com/ai4pkm/orchestrator/internal/ui"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate config, prompts, executors, and policies without running",
	Long: `doctor loads orchestrator.yaml, resolves every agent's prompt file
and policy_package, and checks that every distinct executor type in use
resolves to a binary, without starting the event loop. A config or
assembly problem stops it at once; executor problems are all reported
before it exits. It exits non-zero if any check failed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func pass(format string, args ...any) {
	fmt.Printf("%s %s\n", ui.StylePrefixDone.Render("✓"), fmt.Sprintf(format, args...))
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ui.StylePrefixError.Render("✗"), fmt.Sprintf(format, args...))
}

func runDoctor(cmd *cobra.Command, args []string) error {
	vault, err := resolveVaultRoot()
	if err != nil {
		fail("vault resolution: %v", err)
		return err
	}
	if ctx, derr := project.Detect(vault); derr == nil {
		pass("vault root: %s (marker: %s)", vault, ctx.MarkerType)
	} else {
		pass("vault root: %s", vault)
	}

	cfg, err := config.Load(vault, configPathOverride())
	if err != nil {
		fail("config load: %v", err)
		return err
	}
	pass("config loaded: %d agent(s)", len(cfg.Agents))

	// config.Load above already resolved prompt paths and rejected duplicate
	// ABBRs; orchestrator.New compiles the registry's globs and regexes,
	// opens the optional index, and compiles every declared policy_package —
	// exercising the same checks a live run depends on.
	orc, err := orchestrator.New(cfg)
	if err != nil {
		fail("orchestrator assembly: %v", err)
		return err
	}
	pass("agent registry, task index, and policy gate compiled")

	resolver := execution.NewResolver(cfg.Executors)
	seen := map[string]bool{}
	problems := 0
	for _, a := range orc.Registry().Agents() {
		if seen[a.Executor] {
			continue
		}
		seen[a.Executor] = true
		if _, err := resolver.Resolve(a.Executor); err != nil {
			fail("executor %q: %v", a.Executor, err)
			problems++
			continue
		}
		pass("executor %q resolves", a.Executor)
	}

	if problems > 0 {
		return fmt.Errorf("doctor found %d problem(s)", problems)
	}
	fmt.Println("all checks passed")
	return nil
}

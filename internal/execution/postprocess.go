package execution

import (
	"fmt"
	"os"
	"regexp"

	"github.com/ai4pkm/orchestrator/internal/atomicfile"
	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/orcherr"
)

// runPostProcess runs the agent's configured post-processing. A failure here is a
// PostProcessError, logged but non-fatal to the execution's overall
// result — the task still ends PROCESSED.
func runPostProcess(ec Context) error {
	switch ec.Agent.PostProcess {
	case config.PostProcessRemoveTriggerContent:
		return removeTriggerContent(ec)
	default:
		return nil
	}
}

func removeTriggerContent(ec Context) error {
	if ec.TriggerPath == "" || ec.Agent.TriggerContentRegex == "" {
		return nil
	}
	re, err := regexp.Compile(ec.Agent.TriggerContentRegex)
	if err != nil {
		return orcherr.New(orcherr.KindPostProcessError, "recompile trigger_content_regex", err)
	}

	raw, err := os.ReadFile(ec.TriggerPath)
	if err != nil {
		return orcherr.New(orcherr.KindPostProcessError, fmt.Sprintf("read %s", ec.TriggerPath), err)
	}
	updated := re.ReplaceAll(raw, nil)
	if len(updated) == len(raw) {
		return nil // nothing matched; leave file untouched
	}
	if err := atomicfile.Write(ec.TriggerPath, updated, 0o644); err != nil {
		return orcherr.New(orcherr.KindPostProcessError, fmt.Sprintf("write %s", ec.TriggerPath), err)
	}
	return nil
}

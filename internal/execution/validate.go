package execution

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ai4pkm/orchestrator/internal/config"
	"github.com/ai4pkm/orchestrator/internal/orcherr"
)

// validateOutput enforces the output contract: a zero exit is not itself
// success — the executor must have actually produced the contracted
// output.
func validateOutput(ec Context) (outputFile string, err error) {
	switch ec.Agent.OutputKind {
	case config.OutputKindUpdateFile:
		return validateUpdateFile(ec)
	default:
		return validateNewFile(ec)
	}
}

func validateUpdateFile(ec Context) (string, error) {
	if ec.TriggerPath == "" {
		return "", orcherr.New(orcherr.KindOutputValidationError, "update_file agent has no trigger file to validate", nil)
	}
	info, err := os.Stat(ec.TriggerPath)
	if err != nil {
		return "", orcherr.New(orcherr.KindOutputValidationError, "trigger file missing after execution", err)
	}
	if !info.ModTime().After(ec.StartTime) {
		return "", orcherr.New(orcherr.KindOutputValidationError, fmt.Sprintf("input file %s was not modified", ec.TriggerPath), nil)
	}
	return ec.TriggerPath, nil
}

func validateNewFile(ec Context) (string, error) {
	entries, err := os.ReadDir(ec.OutputPath)
	if err != nil {
		return "", orcherr.New(orcherr.KindOutputValidationError, fmt.Sprintf("read output path %s", ec.OutputPath), err)
	}

	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(ec.StartTime) && info.ModTime().After(newestTime) {
			newest = filepath.Join(ec.OutputPath, e.Name())
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", orcherr.New(orcherr.KindOutputValidationError, fmt.Sprintf("no new file found under %s since %s", ec.OutputPath, ec.StartTime), nil)
	}
	return newest, nil
}

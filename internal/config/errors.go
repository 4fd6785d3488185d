package config

import "github.com/ai4pkm/orchestrator/internal/orcherr"

// NewConfigError wraps cause as a taxonomy-tagged ConfigError, the only
// error kind that is fatal at startup.
func NewConfigError(msg string, cause error) *orcherr.Error {
	return orcherr.New(orcherr.KindConfigError, msg, cause)
}

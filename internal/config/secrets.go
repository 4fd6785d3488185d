package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// SecretsFileName is the sibling file consulted for executor API keys and
// other values that must never appear in orchestrator.yaml or in logs.
const SecretsFileName = "secrets.yaml"

// Secrets holds values loaded from <vault>/secrets.yaml (KEY=value syntax,
// parsed with godotenv so operators can reuse the same file format they
// already use for .env). Known keys are also surfaced as typed fields; every
// key, known or not, stays in Raw and is exported into the subprocess
// environment for executors that expect their own API keys.
type Secrets struct {
	PostHogAPIKeyOverride string
	Raw                   map[string]string
}

// LoadSecrets reads <vaultRoot>/secrets.yaml if present. A missing file is
// not an error: most vaults have none. Values are never logged; callers
// must route any diagnostic output through logger.SetLastEvent's redaction.
func LoadSecrets(vaultRoot string) (*Secrets, error) {
	path := filepath.Join(vaultRoot, SecretsFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Secrets{Raw: map[string]string{}}, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, NewConfigError("parse secrets.yaml", err)
	}

	s := &Secrets{Raw: env}
	for k, v := range env {
		if strings.EqualFold(k, "POSTHOG_API_KEY") {
			s.PostHogAPIKeyOverride = v
		}
	}
	return s, nil
}

// EnvPairs returns the secrets as "KEY=VALUE" pairs suitable for appending
// to an exec.Cmd's Env, so executors can read their own credentials without
// the orchestrator ever inspecting or logging them.
func (s *Secrets) EnvPairs() []string {
	if s == nil {
		return nil
	}
	pairs := make([]string, 0, len(s.Raw))
	for k, v := range s.Raw {
		pairs = append(pairs, k+"="+v)
	}
	return pairs
}

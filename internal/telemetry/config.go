// Package telemetry manages the orchestrator's opt-in anonymous usage
// telemetry. Events carry lifecycle facts only (agent abbreviation, event
// kind, terminal status) — never note contents, task titles, or paths.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ConfigFileName is the name of the local telemetry state file.
const ConfigFileName = "telemetry.json"

// Config is the local telemetry state, stored at
// ~/.orchestrator/telemetry.json — deliberately outside any vault, since
// one host may run several vaults and the install ID identifies the host
// installation, not a vault.
type Config struct {
	// Enabled is set and saved as true by each run that starts the PostHog
	// client; a run with telemetry disabled does not rewrite this file.
	Enabled bool `json:"enabled"`

	// InstallID is a random UUID generated once on first load. It is the
	// only identifier ever sent and maps to nothing personally
	// identifiable.
	InstallID string `json:"install_id"`
}

// configDirOverride lets tests point the state file at a temp directory.
var (
	configDirOverride   string
	configDirOverrideMu sync.RWMutex
)

// SetConfigDir sets a custom state directory (for testing). Pass empty to
// restore the default ~/.orchestrator.
func SetConfigDir(dir string) {
	configDirOverrideMu.Lock()
	defer configDirOverrideMu.Unlock()
	configDirOverride = dir
}

func getConfigDir() (string, error) {
	configDirOverrideMu.RLock()
	override := configDirOverride
	configDirOverrideMu.RUnlock()

	if override != "" {
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".orchestrator"), nil
}

// GetConfigPath returns the full path to the telemetry state file.
func GetConfigPath() (string, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads the telemetry state from disk. A missing file yields a
// disabled Config with a freshly generated InstallID; the ID is also
// regenerated if an existing file somehow lost it.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.InstallID = uuid.New().String()
			return cfg, nil
		}
		return nil, fmt.Errorf("read telemetry state: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse telemetry state: %w", err)
	}
	if cfg.InstallID == "" {
		cfg.InstallID = uuid.New().String()
	}
	return cfg, nil
}

// Save writes the telemetry state, creating the directory if needed. The
// file is owner-only: the install ID is not a secret, but there is no
// reason to share it either.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal telemetry state: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("write telemetry state: %w", err)
	}
	return nil
}

// Enable turns telemetry on.
func (c *Config) Enable() {
	c.Enabled = true
}

// Disable turns telemetry off.
func (c *Config) Disable() {
	c.Enabled = false
}

// IsEnabled reports whether telemetry is currently enabled.
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

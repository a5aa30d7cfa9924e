package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// defaultConfigPath is the default filename for persisted configuration.
const defaultConfigPath = "gluectl.toml"

// ConfigManager wraps the loaded configuration and a mutex for concurrent
// access.  The status server reads it while the platform runs.
type ConfigManager struct {
	path   string
	mu     sync.RWMutex
	cfg    Config
	loaded bool
}

// NewConfigManager returns a manager bound to path, or to gluectl.toml when
// path is empty.
func NewConfigManager(path string) *ConfigManager {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	return &ConfigManager{path: path}
}

// Path returns the file the manager reads and writes.
func (cm *ConfigManager) Path() string {
	return cm.path
}

// Load reads configuration from disk.  If the file does not exist, the
// default configuration is persisted and used.
func (cm *ConfigManager) Load() error {
	cm.mu.Lock()
	if cm.loaded {
		cm.mu.Unlock()
		return nil
	}
	data, err := os.ReadFile(cm.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cm.cfg = defaultConfig()
			cm.loaded = true
			// Save takes the read lock.
			cm.mu.Unlock()
			return cm.Save()
		}
		cm.mu.Unlock()
		return fmt.Errorf("config load failed (%s): %w", cm.path, err)
	}
	cfg := defaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("config parse failed (%s): %w", cm.path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		cm.mu.Unlock()
		return fmt.Errorf("config invalid (%s): %w", cm.path, err)
	}
	cm.cfg = cfg
	cm.loaded = true
	cm.mu.Unlock()
	return nil
}

// Save writes the configuration to disk through a temporary file so a crash
// never leaves a truncated config behind.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cm.cfg); err != nil {
		return fmt.Errorf("config encode failed: %w", err)
	}
	tmpPath := cm.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("config write failed (%s): %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, cm.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("config rename failed (%s): %w", cm.path, err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.cfg.clone()
}

// Update applies fn to the configuration under the write lock, validates the
// result and persists it.  On any error the previous configuration is kept.
func (cm *ConfigManager) Update(fn func(*Config) error) error {
	cm.mu.Lock()
	next := cm.cfg.clone()
	if err := fn(&next); err != nil {
		cm.mu.Unlock()
		return err
	}
	if err := ValidateConfig(next); err != nil {
		cm.mu.Unlock()
		return err
	}
	cm.cfg = next
	cm.mu.Unlock()
	return cm.Save()
}

// ValidateConfig checks a configuration before it is used or persisted.
func ValidateConfig(cfg Config) error {
	if err := validateRunSettings(cfg.Controller, cfg.Platform, cfg.Heartbeat); err != nil {
		return err
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok && strings.TrimSpace(cfg.LogLevel) != "" {
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	for name, p := range cfg.Profiles {
		if _, err := profileName(name); err != nil {
			return err
		}
		if err := validateRunSettings(p.Controller, p.Platform, p.Heartbeat); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	if cfg.ActiveProfile != "" {
		if _, ok := cfg.Profiles[cfg.ActiveProfile]; !ok {
			return fmt.Errorf("active_profile: %w: %q", ErrUnknownProfile, cfg.ActiveProfile)
		}
	}
	return nil
}

// validateRunSettings checks the part of the configuration a profile carries.
func validateRunSettings(controller string, platform PlatformConfig, heartbeat HeartbeatConfig) error {
	if _, ok := controllerFactories[strings.ToLower(strings.TrimSpace(controller))]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownController, controller)
	}
	if platform.MinCycleMS < 0 {
		return fmt.Errorf("platform.min_cycle_ms must not be negative")
	}
	if platform.WatchdogMS < 0 {
		return fmt.Errorf("platform.watchdog_ms must not be negative")
	}
	if heartbeat.Pin < 0 {
		return fmt.Errorf("heartbeat.pin must not be negative")
	}
	if heartbeat.IntervalMS <= 0 {
		return fmt.Errorf("heartbeat.interval_ms must be positive")
	}
	return nil
}

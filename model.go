package main

import "time"

// Config is the top-level structure serialised to gluectl.toml.  It selects
// the controller bound to the sketch and tunes the hosted platform around
// it.  Durations are stored in milliseconds.
type Config struct {
	Controller    string             `toml:"controller"`               // registry name, e.g. "heartbeat"
	LogLevel      string             `toml:"log_level"`                // trace|debug|info|warn|error|disabled
	EventLog      string             `toml:"event_log"`                // lifecycle event file, empty disables
	ActiveProfile string             `toml:"active_profile,omitempty"` // last profile saved or applied
	Platform      PlatformConfig     `toml:"platform"`
	Heartbeat     HeartbeatConfig    `toml:"heartbeat"`
	Status        StatusConfig       `toml:"status"`
	Profiles      map[string]Profile `toml:"profiles,omitempty"`
}

// Profile is a named snapshot of the settings that shape a run: which
// controller is bound and how the loop and heartbeat are tuned.  Status and
// logging settings belong to the installation and are not part of it.
type Profile struct {
	CreatedAt  time.Time       `toml:"created_at"`
	Controller string          `toml:"controller"`
	Platform   PlatformConfig  `toml:"platform"`
	Heartbeat  HeartbeatConfig `toml:"heartbeat"`
}

// clone returns a copy that shares no map with c.
func (c Config) clone() Config {
	if c.Profiles != nil {
		profiles := make(map[string]Profile, len(c.Profiles))
		for name, p := range c.Profiles {
			profiles[name] = p
		}
		c.Profiles = profiles
	}
	return c
}

// PlatformConfig tunes the cooperative loop.
type PlatformConfig struct {
	MinCycleMS int    `toml:"min_cycle_ms"` // 0 = back to back
	MaxTicks   uint64 `toml:"max_ticks"`    // 0 = forever
	WatchdogMS int    `toml:"watchdog_ms"`  // 0 = disabled
}

// HeartbeatConfig drives the status LED controller.  Pins use BCM numbering.
type HeartbeatConfig struct {
	Pin        int  `toml:"pin"`
	IntervalMS int  `toml:"interval_ms"`
	ActiveLow  bool `toml:"active_low"`
}

// StatusConfig controls the HTTP status surface.  An empty Addr disables it.
// TokenHash is a bcrypt hash; when empty /api/status is unauthenticated.
type StatusConfig struct {
	Addr      string `toml:"addr"`
	TokenHash string `toml:"token_hash"`
}

func (c PlatformConfig) MinCycle() time.Duration {
	return time.Duration(c.MinCycleMS) * time.Millisecond
}

func (c PlatformConfig) WatchdogTimeout() time.Duration {
	return time.Duration(c.WatchdogMS) * time.Millisecond
}

func (c HeartbeatConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// defaultConfig is written to disk when no configuration file exists.
func defaultConfig() Config {
	return Config{
		Controller: "heartbeat",
		LogLevel:   "info",
		EventLog:   "events.log",
		Platform: PlatformConfig{
			WatchdogMS: 2000,
		},
		Heartbeat: HeartbeatConfig{
			Pin:        17,
			IntervalMS: 500,
		},
		Status: StatusConfig{
			Addr: "127.0.0.1:9110",
		},
	}
}

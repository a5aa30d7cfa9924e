package main

// Named profiles let an operator keep several tunings of the same install
// (a bench run with the idle controller, a line run with the heartbeat) in
// one gluectl.toml and switch between them without editing the file.

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/BurntSushi/toml"
)

// ErrUnknownProfile is returned when a profile name is not stored.
var ErrUnknownProfile = errors.New("unknown profile")

// NamedProfile pairs a stored profile with its name for listing.
type NamedProfile struct {
	Name string
	Profile
}

// profileDocument is the on-disk form of an exported profile.
type profileDocument struct {
	Name    string  `toml:"name"`
	Profile Profile `toml:"profile"`
}

// profileName trims name and rejects empty names or names with control
// characters.
func profileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("profile name is required")
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("profile name %q contains control characters", name)
	}
	return name, nil
}

// SaveProfile stores the current run settings under name, replacing any
// profile of the same name, and marks it active.
func (cm *ConfigManager) SaveProfile(name string, at time.Time) error {
	name, err := profileName(name)
	if err != nil {
		return err
	}
	return cm.Update(func(c *Config) error {
		if c.Profiles == nil {
			c.Profiles = make(map[string]Profile)
		}
		c.Profiles[name] = Profile{
			CreatedAt:  at.UTC().Truncate(time.Second),
			Controller: c.Controller,
			Platform:   c.Platform,
			Heartbeat:  c.Heartbeat,
		}
		c.ActiveProfile = name
		return nil
	})
}

// UseProfile copies a stored profile over the run settings.  It takes effect
// on the next boot.
func (cm *ConfigManager) UseProfile(name string) error {
	name = strings.TrimSpace(name)
	return cm.Update(func(c *Config) error {
		p, ok := c.Profiles[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownProfile, name)
		}
		c.Controller = p.Controller
		c.Platform = p.Platform
		c.Heartbeat = p.Heartbeat
		c.ActiveProfile = name
		return nil
	})
}

// DeleteProfile removes a stored profile.  The run settings are untouched.
func (cm *ConfigManager) DeleteProfile(name string) error {
	name = strings.TrimSpace(name)
	return cm.Update(func(c *Config) error {
		if _, ok := c.Profiles[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownProfile, name)
		}
		delete(c.Profiles, name)
		if c.ActiveProfile == name {
			c.ActiveProfile = ""
		}
		return nil
	})
}

// Profiles lists the stored profiles, newest first.
func (cm *ConfigManager) Profiles() []NamedProfile {
	cfg := cm.Get()
	out := make([]NamedProfile, 0, len(cfg.Profiles))
	for name, p := range cfg.Profiles {
		out = append(out, NamedProfile{Name: name, Profile: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ExportProfile writes one profile as a standalone TOML document.
func (cm *ConfigManager) ExportProfile(name string, w io.Writer) error {
	name = strings.TrimSpace(name)
	p, ok := cm.Get().Profiles[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	if err := toml.NewEncoder(w).Encode(profileDocument{Name: name, Profile: p}); err != nil {
		return fmt.Errorf("profile encode failed: %w", err)
	}
	return nil
}

// ImportProfile reads a document written by ExportProfile and stores it,
// replacing a profile of the same name.  The active profile is unchanged.
func (cm *ConfigManager) ImportProfile(r io.Reader) (string, error) {
	var doc profileDocument
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return "", fmt.Errorf("profile parse failed: %w", err)
	}
	name, err := profileName(doc.Name)
	if err != nil {
		return "", err
	}
	err = cm.Update(func(c *Config) error {
		if c.Profiles == nil {
			c.Profiles = make(map[string]Profile)
		}
		c.Profiles[name] = doc.Profile
		return nil
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

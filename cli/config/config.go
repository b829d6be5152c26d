// Package config provides configuration management for the sgctl CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Version is the config file format version
const Version = "1"

// DefaultServer is used when no profile names a server
const DefaultServer = "http://localhost:8080"

// Config represents the CLI configuration file
type Config struct {
	// Version of the config file format
	Version string `yaml:"version"`

	// CurrentProfile is the active profile name
	CurrentProfile string `yaml:"current_profile"`

	// Profiles is a map of profile name to profile configuration
	Profiles map[string]*Profile `yaml:"profiles"`
}

// Profile represents a named server the CLI talks to
type Profile struct {
	// Name is the profile identifier (e.g., "dev", "staging", "prod")
	Name string `yaml:"name"`

	// Server is the SocialGraph server URL
	Server string `yaml:"server"`

	// Token is sent as a bearer token when set, for servers behind a gateway
	Token string `yaml:"token,omitempty"`

	// OutputFormat default for this profile
	OutputFormat string `yaml:"output_format,omitempty"`
}

// ErrProfileNotFound is returned when a named profile does not exist
var ErrProfileNotFound = errors.New("profile not found")

// DefaultConfigDir returns the default config directory path
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".socialgraph"
	}
	return filepath.Join(home, ".socialgraph")
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// New creates a new empty configuration
func New() *Config {
	return &Config{
		Version:  Version,
		Profiles: make(map[string]*Profile),
	}
}

// Load reads configuration from the specified path
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path) //nolint:gosec // CLI reads a user-chosen config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*Profile)
	}

	return &cfg, nil
}

// LoadOrCreate reads configuration or returns an empty one if the file does not exist
func LoadOrCreate(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	return cfg, err
}

// Save writes the configuration to the specified path
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Ensure directory exists with restricted permissions
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Tokens may be stored, so owner read/write only
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetProfile returns the named profile or the current profile if name is empty
func (c *Config) GetProfile(name string) (*Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}
	if name == "" {
		return nil, fmt.Errorf("no profile selected - run 'sgctl config set-profile'")
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return profile, nil
}

// SetProfile adds or replaces a profile. The first profile becomes current.
func (c *Config) SetProfile(profile *Profile) {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}
	c.Profiles[profile.Name] = profile
	if c.CurrentProfile == "" {
		c.CurrentProfile = profile.Name
	}
}

// ListProfiles returns profile names in sorted order
func (c *Config) ListProfiles() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

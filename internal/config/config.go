// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Sheet        string `json:"sheet,omitempty"`        // Path to the recipient spreadsheet (.xlsx)
	Certificates string `json:"certificates,omitempty"` // Directory holding the certificate PDFs
	ProfileDir   string `json:"profile_dir,omitempty"`  // Chrome profile directory for session persistence

	// Delivery
	Greeting     string   `json:"greeting,omitempty"`      // Message template; {name} expands to the first name
	DelaySeconds int      `json:"delay_seconds,omitempty" validate:"gte=0,lte=300"` // Pause between recipients
	Include      []string `json:"include,omitempty"`       // Only deliver to recipients matching these names
	Exclude      []string `json:"exclude,omitempty"`       // Never deliver to recipients matching these names

	// Behavior
	StrictPhone bool   `json:"strict_phone,omitempty"` // Reject numbers failing libphonenumber validation
	Headless    bool   `json:"headless,omitempty"`     // Run Chrome headless (QR login needs a visible window)
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for outcome persistence
}

// DefaultProfileDir is the browser profile directory used when none is configured.
const DefaultProfileDir = "whatsapp_profile"

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Required fields
// are not checked here; that happens after CLI flag merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Sheet != "" {
		if _, err := os.Stat(c.Sheet); os.IsNotExist(err) {
			return fmt.Errorf("config error: spreadsheet not found: %s", c.Sheet)
		}
	}
	if c.Certificates != "" {
		info, err := os.Stat(c.Certificates)
		if os.IsNotExist(err) {
			return fmt.Errorf("config error: certificate directory not found: %s", c.Certificates)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("config error: certificates path is not a directory: %s", c.Certificates)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Sheet == "" {
		result.Sheet = defaults.Sheet
	}
	if result.Certificates == "" {
		result.Certificates = defaults.Certificates
	}
	if result.ProfileDir == "" {
		result.ProfileDir = defaults.ProfileDir
	}
	if result.Greeting == "" {
		result.Greeting = defaults.Greeting
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.DelaySeconds == 0 {
		result.DelaySeconds = defaults.DelaySeconds
	}
	if len(result.Include) == 0 {
		result.Include = defaults.Include
	}
	if len(result.Exclude) == 0 {
		result.Exclude = defaults.Exclude
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

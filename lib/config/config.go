// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is not given.
const EnvironmentVariable = "CONJURE_CONFIG"

// Config is the complete conjure configuration.
type Config struct {
	// Tag labels the bridge's own informational lines.
	// Default: Conjure
	Tag string `yaml:"tag"`

	// Wire is the editor request encoding: json or cbor.
	// Default: json
	Wire string `yaml:"wire"`

	// LogFile is where the log view is written. Empty disables the
	// log view.
	// Default: ${HOME}/.cache/conjure/conjure.log
	LogFile string `yaml:"log_file"`

	// Pool configures the connection registry.
	Pool PoolConfig `yaml:"pool"`

	// Connections are opened at startup, in order, as if the editor had
	// sent a connect request for each.
	Connections []ConnectionConfig `yaml:"connections"`
}

// PoolConfig configures the connection registry.
type PoolConfig struct {
	// DialTimeout bounds each connect.
	// Default: 5s
	DialTimeout string `yaml:"dial_timeout"`

	// WriteTimeout bounds each send to a backend.
	// Default: 5s
	WriteTimeout string `yaml:"write_timeout"`

	// ReplaceOnReconnect makes connecting with a live key replace the
	// existing connection instead of failing.
	// Default: false
	ReplaceOnReconnect bool `yaml:"replace_on_reconnect"`

	// Prelude is sent to every backend right after connecting.
	Prelude string `yaml:"prelude"`

	// DocTemplate builds documentation requests; %s is the name.
	// Default: (clojure.repl/doc %s)
	DocTemplate string `yaml:"doc_template"`
}

// ConnectionConfig describes one connection opened at startup.
type ConnectionConfig struct {
	Key     string `yaml:"key"`
	Address string `yaml:"address"`
	Match   string `yaml:"match"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tag:     "Conjure",
		Wire:    "json",
		LogFile: "${HOME}/.cache/conjure/conjure.log",
		Pool: PoolConfig{
			DialTimeout:  "5s",
			WriteTimeout: "5s",
			DocTemplate:  "(clojure.repl/doc %s)",
		},
	}
}

// Load loads the file named by CONJURE_CONFIG, or returns Default
// (with variables expanded) when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data, isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults. With jsonInput set, data is
// treated as JSONC: comments and trailing commas are stripped first.
func Parse(data []byte, jsonInput bool) (*Config, error) {
	if jsonInput {
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func isJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	}
	return false
}

// DialTimeout returns the parsed pool.dial_timeout.
func (c *Config) DialTimeout() (time.Duration, error) {
	return parsePositiveDuration("pool.dial_timeout", c.Pool.DialTimeout)
}

// WriteTimeout returns the parsed pool.write_timeout.
func (c *Config) WriteTimeout() (time.Duration, error) {
	return parsePositiveDuration("pool.write_timeout", c.Pool.WriteTimeout)
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", field, value)
	}
	return duration, nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Tag == "" {
		errs = append(errs, fmt.Errorf("tag is required"))
	}

	wireValues := []string{"json", "cbor"}
	if !contains(wireValues, c.Wire) {
		errs = append(errs, fmt.Errorf("wire must be one of: %v", wireValues))
	}

	if _, err := c.DialTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.WriteTimeout(); err != nil {
		errs = append(errs, err)
	}

	if !validDocTemplate(c.Pool.DocTemplate) {
		errs = append(errs, fmt.Errorf("pool.doc_template must contain exactly one %%s and no other verbs (write %%%% for a literal %%), got %q", c.Pool.DocTemplate))
	}

	seen := make(map[string]bool)
	for index, connection := range c.Connections {
		field := fmt.Sprintf("connections[%d]", index)
		if connection.Key == "" {
			errs = append(errs, fmt.Errorf("%s.key is required", field))
		} else if seen[connection.Key] {
			errs = append(errs, fmt.Errorf("%s.key %q is duplicated", field, connection.Key))
		}
		seen[connection.Key] = true

		if connection.Address == "" {
			errs = append(errs, fmt.Errorf("%s.address is required", field))
		}
		if _, err := regexp.Compile(connection.Match); err != nil {
			errs = append(errs, fmt.Errorf("%s.match: %w", field, err))
		} else if connection.Match == "" {
			errs = append(errs, fmt.Errorf("%s.match is required", field))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// LogFile.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.LogFile = expandVars(c.LogFile, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// validDocTemplate reports whether template has exactly one %s and no
// other formatting verbs once %% escapes are removed.
func validDocTemplate(template string) bool {
	stripped := strings.ReplaceAll(template, "%%", "")
	return strings.Count(stripped, "%") == 1 && strings.Count(stripped, "%s") == 1
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

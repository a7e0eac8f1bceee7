// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Tag != "Conjure" {
		t.Errorf("expected tag=Conjure, got %s", cfg.Tag)
	}
	if cfg.Wire != "json" {
		t.Errorf("expected wire=json, got %s", cfg.Wire)
	}
	if cfg.Pool.ReplaceOnReconnect {
		t.Error("expected replace_on_reconnect=false by default")
	}
	if cfg.Pool.DocTemplate != "(clojure.repl/doc %s)" {
		t.Errorf("expected default doc_template, got %s", cfg.Pool.DocTemplate)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_WithoutConjureConfig(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LogFile != "/home/tester/.cache/conjure/conjure.log" {
		t.Errorf("expected expanded default log_file, got %s", cfg.LogFile)
	}
	if cfg.Wire != "json" {
		t.Errorf("expected wire=json, got %s", cfg.Wire)
	}
}

func TestLoad_WithConjureConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "conjure.yaml")
	configContent := `
tag: Bridge
wire: cbor
pool:
  replace_on_reconnect: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Tag != "Bridge" {
		t.Errorf("expected tag=Bridge, got %s", cfg.Tag)
	}
	if cfg.Wire != "cbor" {
		t.Errorf("expected wire=cbor, got %s", cfg.Wire)
	}
	if !cfg.Pool.ReplaceOnReconnect {
		t.Error("expected replace_on_reconnect=true")
	}
	// Unset fields keep their defaults.
	if cfg.Pool.DialTimeout != "5s" {
		t.Errorf("expected dial_timeout=5s, got %s", cfg.Pool.DialTimeout)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "conjure.yaml")
	configContent := `
log_file: ${CONJURE_TEST_DIR:-/tmp/conjure}/session.log
pool:
  dial_timeout: 250ms
  prelude: "(require 'clojure.repl)"
connections:
  - key: app
    address: 127.0.0.1:5555
    match: '\.clj$'
  - key: cljs
    address: 127.0.0.1:5556
    match: '\.cljs$'
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("CONJURE_TEST_DIR", "")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	if cfg.LogFile != "/tmp/conjure/session.log" {
		t.Errorf("expected log_file=/tmp/conjure/session.log, got %s", cfg.LogFile)
	}
	if cfg.Pool.Prelude != "(require 'clojure.repl)" {
		t.Errorf("expected prelude, got %q", cfg.Pool.Prelude)
	}
	timeout, err := cfg.DialTimeout()
	if err != nil {
		t.Fatalf("DialTimeout() failed: %v", err)
	}
	if timeout != 250*time.Millisecond {
		t.Errorf("expected dial timeout 250ms, got %s", timeout)
	}

	if len(cfg.Connections) != 2 {
		t.Fatalf("expected 2 connections, got %d", len(cfg.Connections))
	}
	if cfg.Connections[0].Key != "app" || cfg.Connections[1].Key != "cljs" {
		t.Errorf("connections out of order: %+v", cfg.Connections)
	}
	if cfg.Connections[0].Match != `\.clj$` {
		t.Errorf("expected match \\.clj$, got %s", cfg.Connections[0].Match)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "conjure.jsonc")
	configContent := `{
  // Editor speaks CBOR.
  "wire": "cbor",
  "connections": [
    {"key": "app", "address": "127.0.0.1:5555", "match": "\\.clj$"},
  ],
}`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	if cfg.Wire != "cbor" {
		t.Errorf("expected wire=cbor, got %s", cfg.Wire)
	}
	if len(cfg.Connections) != 1 || cfg.Connections[0].Match != `\.clj$` {
		t.Errorf("unexpected connections: %+v", cfg.Connections)
	}
	if cfg.Tag != "Conjure" {
		t.Errorf("expected default tag to survive, got %s", cfg.Tag)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config") {
		t.Errorf("expected reading config error, got %v", err)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "conjure.yaml")
	if err := os.WriteFile(configPath, []byte("pool: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), configPath) {
		t.Errorf("expected error to name the file, got %v", err)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/conjure.log",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/conjure.log",
		},
		{
			input:    "${CONJURE_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "empty tag",
			modify:  func(c *Config) { c.Tag = "" },
			wantErr: "tag is required",
		},
		{
			name:    "unknown wire",
			modify:  func(c *Config) { c.Wire = "msgpack" },
			wantErr: "wire must be one of",
		},
		{
			name:    "unparseable dial timeout",
			modify:  func(c *Config) { c.Pool.DialTimeout = "soon" },
			wantErr: "pool.dial_timeout",
		},
		{
			name:    "zero write timeout",
			modify:  func(c *Config) { c.Pool.WriteTimeout = "0s" },
			wantErr: "pool.write_timeout must be positive",
		},
		{
			name:    "doc template without placeholder",
			modify:  func(c *Config) { c.Pool.DocTemplate = "(doc)" },
			wantErr: "pool.doc_template",
		},
		{
			name:    "doc template with another verb",
			modify:  func(c *Config) { c.Pool.DocTemplate = "(doc %d %s)" },
			wantErr: "pool.doc_template",
		},
		{
			name:    "doc template with escaped placeholder only",
			modify:  func(c *Config) { c.Pool.DocTemplate = "(doc %%s)" },
			wantErr: "pool.doc_template",
		},
		{
			name:   "doc template with literal percent",
			modify: func(c *Config) { c.Pool.DocTemplate = "(doc 100%% %s)" },
		},
		{
			name: "duplicate connection key",
			modify: func(c *Config) {
				c.Connections = []ConnectionConfig{
					{Key: "app", Address: "127.0.0.1:1", Match: "a"},
					{Key: "app", Address: "127.0.0.1:2", Match: "b"},
				}
			},
			wantErr: `connections[1].key "app" is duplicated`,
		},
		{
			name: "invalid match",
			modify: func(c *Config) {
				c.Connections = []ConnectionConfig{
					{Key: "app", Address: "127.0.0.1:1", Match: "("},
				}
			},
			wantErr: "connections[0].match",
		},
		{
			name: "missing address",
			modify: func(c *Config) {
				c.Connections = []ConnectionConfig{{Key: "app", Match: "a"}}
			},
			wantErr: "connections[0].address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Tag = ""
	cfg.Wire = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"tag is required", "wire must be one of"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

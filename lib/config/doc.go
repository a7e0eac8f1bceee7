// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for conjure.
//
// Configuration comes from a single file named by the --config flag
// (via [LoadFile]) or the CONJURE_CONFIG environment variable (via
// [Load]). When neither is given, [Load] returns [Default]: an editor
// plugin must be able to start the bridge with no setup. There is no
// ~/.config discovery and environment variables never override
// individual values.
//
// Files ending in .json or .jsonc are JSON with comments and trailing
// commas; everything else is YAML. Both decode into the same [Config]
// struct through the YAML decoder, since YAML is a superset of JSON.
//
// ${HOME}, ${VAR}, and ${VAR:-default} patterns are expanded in
// log_file after loading.
//
// Key exports:
//
//   - [Config] -- tag, wire format, log file, pool settings, and
//     connections to open at startup
//   - [Default] -- the built-in configuration
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other conjure packages.
package config

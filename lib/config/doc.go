// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for fixwright.
//
// Configuration is loaded from a single file specified by either the
// FIXWRIGHT_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. This keeps configuration
// deterministic and auditable with no hidden overrides.
//
// When no file is specified, [Load] returns [Default]. Command-line
// flags override the loaded values.
package config

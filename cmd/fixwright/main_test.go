// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fixwright/fixwright/diagnostics"
	"github.com/fixwright/fixwright/lib/config"
	"github.com/fixwright/fixwright/vcs"
	"github.com/muesli/termenv"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range cases {
		level, err := parseLevel(name)
		if err != nil {
			t.Errorf("parseLevel(%q): %v", name, err)
		}
		if level != want {
			t.Errorf("parseLevel(%q) = %v, want %v", name, level, want)
		}
	}

	if _, err := parseLevel("verbose"); err == nil {
		t.Error("parseLevel accepted an invalid level")
	}
}

func TestColorProfileExplicitModes(t *testing.T) {
	if colorProfile(config.ColorAlways) != termenv.ANSI {
		t.Error("always mode did not select ANSI")
	}
	if colorProfile(config.ColorNever) != termenv.Ascii {
		t.Error("never mode did not select Ascii")
	}
}

func TestGuardVersionControlAbortsOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	t.Setenv(vcs.EnvIgnoreVCS, "")

	var output bytes.Buffer
	renderer := diagnostics.NewRenderer(&output, termenv.Ascii)

	err := guardVersionControl(context.Background(), renderer, dir, false, false)
	if err == nil {
		t.Fatal("expected abort outside a repository")
	}
	if !strings.Contains(output.String(), "warning: Could not detect a version control system") {
		t.Errorf("missing warning, got %q", output.String())
	}
}

func TestGuardVersionControlAllowNoVCS(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	t.Setenv(vcs.EnvIgnoreVCS, "")

	var output bytes.Buffer
	renderer := diagnostics.NewRenderer(&output, termenv.Ascii)

	if err := guardVersionControl(context.Background(), renderer, dir, true, false); err != nil {
		t.Fatalf("guardVersionControl with --allow-no-vcs: %v", err)
	}
	if !strings.Contains(output.String(), "warning: ") {
		t.Error("expected the warning even when allowed to proceed")
	}
}

func TestGuardVersionControlIgnoreEnv(t *testing.T) {
	t.Setenv(vcs.EnvIgnoreVCS, "1")

	var output bytes.Buffer
	renderer := diagnostics.NewRenderer(&output, termenv.Ascii)

	if err := guardVersionControl(context.Background(), renderer, t.TempDir(), false, false); err != nil {
		t.Fatalf("guardVersionControl with ignore env: %v", err)
	}
	if output.Len() != 0 {
		t.Errorf("ignore env still produced output: %q", output.String())
	}
}

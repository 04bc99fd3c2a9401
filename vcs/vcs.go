// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package vcs checks whether the working tree is under version
// control and clean before fixwright lets workers rewrite files in
// place. An in-place rewrite with no VCS backing it is unrecoverable
// if a fix turns out wrong, so the supervisor warns (and by default
// aborts) on a missing or dirty tree.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// EnvIgnoreVCS skips the version-control guard entirely when set.
// Exists for test harnesses that run fixwright in throwaway trees.
const EnvIgnoreVCS = "FIXWRIGHT_IGNORE_VCS"

// Status describes the version-control state of a directory.
type Status struct {
	// Present reports whether dir is inside a git working tree.
	Present bool

	// Dirty lists the `git status --porcelain` lines for uncommitted
	// changes. Empty means a clean tree (or no VCS at all).
	Dirty []string
}

// Check inspects the git state of dir. A missing git binary or a
// directory outside any repository reports Present=false rather than
// an error; errors are reserved for git itself misbehaving.
func Check(ctx context.Context, dir string) (Status, error) {
	if !insideWorkTree(ctx, dir) {
		return Status{}, nil
	}

	output, err := run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return Status{}, fmt.Errorf("checking working tree state: %w", err)
	}

	status := Status{Present: true}
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			status.Dirty = append(status.Dirty, line)
		}
	}
	return status, nil
}

func insideWorkTree(ctx context.Context, dir string) bool {
	output, err := run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(output) == "true"
}

// run executes a git command targeting dir and returns stdout. Stderr
// is captured separately and included in error messages on failure.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

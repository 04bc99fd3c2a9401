// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fixwright/fixwright/diagnostics"
	"github.com/fixwright/fixwright/lib/process"
	"github.com/fixwright/fixwright/lockserver"
)

// Options configures one coordination session.
type Options struct {
	// Command is the build orchestrator and its arguments. Required.
	Command []string

	// RunDir is the base directory for the session's private runtime
	// directory. Empty means the system temp directory.
	RunDir string

	// ExtraEnv holds additional KEY=VALUE entries for the
	// orchestrator's environment, beyond the endpoint variables.
	ExtraEnv []string

	// Renderer receives the aggregated diagnostics stream. Required.
	Renderer *diagnostics.Renderer

	// Logger is the supervisor's structured logger. Required.
	Logger *slog.Logger
}

// Session is one end-to-end invocation: two coordination servers plus
// the orchestrator process between them.
type Session struct {
	options Options
}

// New validates options and creates a session.
func New(options Options) (*Session, error) {
	if len(options.Command) == 0 {
		return nil, fmt.Errorf("session requires an orchestrator command")
	}
	if options.Renderer == nil {
		return nil, fmt.Errorf("session requires a renderer")
	}
	if options.Logger == nil {
		return nil, fmt.Errorf("session requires a logger")
	}
	return &Session{options: options}, nil
}

// Run executes the session. Both servers are listening before the
// orchestrator is spawned and are stopped after it exits. The return
// value carries the orchestrator's own result: nil for exit status 0,
// a [*process.ExitError] for any other exit status, and a plain error
// only when the session itself failed (endpoint setup, or the
// orchestrator never started). Cancelling ctx kills the orchestrator;
// its resulting status is still the session's result.
func (s *Session) Run(ctx context.Context) error {
	runtimeDir, err := os.MkdirTemp(s.options.RunDir, "fixwright-*")
	if err != nil {
		return fmt.Errorf("creating session runtime directory: %w", err)
	}
	defer os.RemoveAll(runtimeDir)

	// Servers outlive ctx cancellation just long enough to observe
	// worker disconnects as the orchestrator's process tree dies.
	serveCtx, stopServers := context.WithCancel(context.Background())
	defer stopServers()

	lockServer := lockserver.NewServer(filepath.Join(runtimeDir, "lock.sock"), s.options.Logger)
	diagnosticsServer := diagnostics.NewServer(filepath.Join(runtimeDir, "diagnostics.sock"), s.options.Renderer, s.options.Logger)

	lockResult := make(chan error, 1)
	go func() { lockResult <- lockServer.Serve(serveCtx) }()
	select {
	case <-lockServer.Ready():
	case err := <-lockResult:
		return fmt.Errorf("starting lock service: %w", err)
	}

	diagnosticsResult := make(chan error, 1)
	go func() { diagnosticsResult <- diagnosticsServer.Serve(serveCtx) }()
	select {
	case <-diagnosticsServer.Ready():
	case err := <-diagnosticsResult:
		stopServers()
		<-lockResult
		return fmt.Errorf("starting diagnostics service: %w", err)
	}

	s.options.Logger.Debug("coordination session ready",
		"lock_socket", lockServer.SocketPath(),
		"diagnostics_socket", diagnosticsServer.SocketPath(),
	)

	command := exec.CommandContext(ctx, s.options.Command[0], s.options.Command[1:]...)
	command.Stdin = os.Stdin
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	command.Env = append(os.Environ(),
		EnvLockSocket+"="+lockServer.SocketPath(),
		EnvDiagnosticsSocket+"="+diagnosticsServer.SocketPath(),
	)
	command.Env = append(command.Env, s.options.ExtraEnv...)

	runErr := command.Run()

	stopServers()
	for _, result := range []<-chan error{lockResult, diagnosticsResult} {
		if err := <-result; err != nil {
			s.options.Logger.Warn("coordination server shutdown", "error", err)
		}
	}

	if runErr == nil {
		return nil
	}
	if code, ok := process.ExitStatus(runErr); ok {
		return &process.ExitError{Code: code}
	}
	return fmt.Errorf("running %q: %w", s.options.Command[0], runErr)
}

// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// fixwright runs a build orchestrator with its compile workers wired
// to a per-session coordination layer: a path-keyed lock server that
// serializes in-place source rewrites across worker processes, and a
// diagnostics server that aggregates every worker's progress and
// failure events into one ordered terminal stream.
//
//	fixwright [flags] -- <build command> [args...]
//
// The session's exit status is exactly the build command's own.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/fixwright/fixwright/diagnostics"
	"github.com/fixwright/fixwright/lib/config"
	"github.com/fixwright/fixwright/lib/process"
	"github.com/fixwright/fixwright/session"
	"github.com/fixwright/fixwright/vcs"
	"github.com/muesli/termenv"
)

const versionString = "0.3.0"

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		runDir      string
		logLevel    string
		colorMode   string
		brokenCode  bool
		allowNoVCS  bool
		allowDirty  bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("fixwright", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $FIXWRIGHT_CONFIG)")
	flagSet.StringVar(&runDir, "run-dir", "", "base directory for the session's coordination sockets")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, or error")
	flagSet.StringVar(&colorMode, "color", "", "color output: auto, always, or never")
	flagSet.BoolVar(&brokenCode, "broken-code", false, "fix code even if it already has compiler errors")
	flagSet.BoolVar(&allowNoVCS, "allow-no-vcs", false, "fix code even if a VCS was not detected")
	flagSet.BoolVar(&allowDirty, "allow-dirty", false, "fix code even if the working directory is dirty")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	// The first non-flag argument starts the orchestrator command;
	// everything after it belongs to that command, not to fixwright.
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("fixwright %s\n", versionString)
		return nil
	}

	configuration, err := loadConfiguration(configPath)
	if err != nil {
		return err
	}
	if runDir != "" {
		configuration.RunDir = runDir
	}
	if logLevel != "" {
		configuration.LogLevel = logLevel
	}
	if colorMode != "" {
		configuration.Color = config.ColorMode(colorMode)
	}

	level, err := parseLevel(configuration.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	command := flagSet.Args()
	if len(command) == 0 {
		return fmt.Errorf("no build command given\n\nusage: fixwright [flags] -- <build command> [args...]")
	}

	renderer := diagnostics.NewRenderer(os.Stdout, colorProfile(configuration.Color))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := guardVersionControl(ctx, renderer, ".", allowNoVCS, allowDirty); err != nil {
		return err
	}

	var extraEnv []string
	if brokenCode {
		extraEnv = append(extraEnv, session.EnvBrokenCode+"=1")
	}

	coordination, err := session.New(session.Options{
		Command:  command,
		RunDir:   configuration.RunDir,
		ExtraEnv: extraEnv,
		Renderer: renderer,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	return coordination.Run(ctx)
}

func loadConfiguration(configPath string) (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q (want debug, info, warn, or error)", name)
}

// colorProfile maps the configured color mode to a termenv profile,
// probing stdout for auto mode.
func colorProfile(mode config.ColorMode) termenv.Profile {
	switch mode {
	case config.ColorAlways:
		return termenv.ANSI
	case config.ColorNever:
		return termenv.Ascii
	default:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return termenv.ANSI
		}
		return termenv.Ascii
	}
}

// guardVersionControl warns (and by default aborts) when dir is not a
// clean checkout. Workers rewrite source in place; without a VCS
// there is no way back from a bad fix.
func guardVersionControl(ctx context.Context, renderer *diagnostics.Renderer, dir string, allowNoVCS, allowDirty bool) error {
	if os.Getenv(vcs.EnvIgnoreVCS) != "" {
		return nil
	}

	status, err := vcs.Check(ctx, dir)
	if err != nil {
		return err
	}

	if !status.Present {
		if err := renderer.Warning("Could not detect a version control system",
			"You should consider using a VCS so you can easily see and revert fixwright's changes."); err != nil {
			return err
		}
		if !allowNoVCS {
			return fmt.Errorf("no VCS found, aborting; override this behavior with --allow-no-vcs")
		}
		return nil
	}

	if len(status.Dirty) > 0 {
		body := append([]string{"Make sure your working directory is clean so you can easily revert fixwright's changes.", ""}, status.Dirty...)
		if err := renderer.Warning("Working directory dirty", body...); err != nil {
			return err
		}
		if !allowDirty {
			return fmt.Errorf("working directory dirty, aborting; override this behavior with --allow-dirty")
		}
	}
	return nil
}

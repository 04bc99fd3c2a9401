// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package session owns the lifecycle of one fixwright invocation: it
// starts the lock and diagnostics servers on fresh per-session Unix
// sockets, publishes their paths to the spawned build orchestrator
// through the process environment, waits for the orchestrator to
// exit, tears both servers down, and surfaces the orchestrator's own
// exit status unchanged.
//
// Workers (spawned by the orchestrator, not by this package) find the
// sockets with [Discover].
package session

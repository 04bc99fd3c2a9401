// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockserver serializes file edits across the fix worker
// fleet. The supervisor runs a [Server] on a per-session Unix socket;
// each worker holds one connection for its lifetime and acquires
// exclusive, path-keyed locks over it before rewriting a source file.
//
// The connection is the lease: a lock is released either by an
// explicit release request or by the connection closing, so a worker
// that crashes while holding a lock can never deadlock the session.
// Grants per path are strictly FIFO, and distinct paths never contend.
//
// The wire protocol is a CBOR sequence of requests, each acknowledged
// by one response. An acquire acknowledgment is withheld until the
// lock is granted, which is what blocks the worker.
package lockserver

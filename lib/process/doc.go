// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds small helpers for binary entrypoints and for
// propagating child process exit status.
package process

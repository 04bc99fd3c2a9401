// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package diagnostics aggregates progress and failure events from the
// fix worker fleet into one ordered terminal narrative. Workers post
// structured [Message] values to the session's diagnostics socket; a
// [Server] feeds every received message to a single render goroutine,
// so no two messages' output ever interleaves and rendering order is
// exactly arrival order.
//
// A post is acknowledged only after its message has been fully
// rendered. That acknowledgment is the backpressure: a slow terminal
// throttles the fleet instead of letting output queue without bound.
package diagnostics

// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"context"
	"fmt"
	"net"

	"github.com/fixwright/fixwright/lib/codec"
)

// Post sends one message to the diagnostics server at socketPath and
// waits for the acknowledgment, which arrives only after the message
// has been fully rendered. Workers call this once per significant
// event; the blocking acknowledgment is what paces the fleet to the
// terminal.
func Post(ctx context.Context, socketPath string, message Message) error {
	if err := message.validate(); err != nil {
		return err
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connecting to diagnostics server: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := codec.NewEncoder(conn).Encode(message); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	var reply ack
	if err := codec.NewDecoder(conn).Decode(&reply); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("reading acknowledgment: %w", err)
	}
	if !reply.OK {
		return fmt.Errorf("server rejected message: %s", reply.Error)
	}
	return nil
}

// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package lockserver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/fixwright/fixwright/lib/codec"
)

// Client is a worker's session with the lock server. The connection
// doubles as the lease on every lock the worker holds: closing it, or
// crashing, releases them all.
//
// Methods are safe for concurrent use, but the protocol is one
// request at a time, so concurrent acquires from one client are
// serialized.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	encoder *codec.Encoder
	decoder *codec.Decoder
}

// Dial connects to the lock server at socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to lock server: %w", err)
	}
	return &Client{
		conn:    conn,
		encoder: codec.NewEncoder(conn),
		decoder: codec.NewDecoder(conn),
	}, nil
}

// Acquire blocks until the server grants an exclusive lock on path,
// then returns a release function. The release function sends an
// explicit release and waits for its acknowledgment; if it is never
// called, the lock is released when the client closes.
//
// Cancelling ctx tears down the whole connection, releasing every
// lock this client holds: a cancelled worker has no business keeping
// any of them.
func (c *Client) Acquire(ctx context.Context, path string) (release func() error, err error) {
	if err := c.roundTrip(ctx, request{Action: actionAcquire, Path: path}); err != nil {
		return nil, fmt.Errorf("acquiring lock on %s: %w", path, err)
	}
	return func() error {
		if err := c.roundTrip(ctx, request{Action: actionRelease, Path: path}); err != nil {
			return fmt.Errorf("releasing lock on %s: %w", path, err)
		}
		return nil
	}, nil
}

// Close ends the session, implicitly releasing all held locks.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(ctx context.Context, req request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	if err := c.encoder.Encode(req); err != nil {
		return err
	}
	var resp response
	if err := c.decoder.Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if !resp.OK {
		return fmt.Errorf("server rejected request: %s", resp.Error)
	}
	return nil
}

// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package lockserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/fixwright/fixwright/lib/codec"
)

// Wire protocol actions.
const (
	actionAcquire = "acquire"
	actionRelease = "release"
)

// request is one worker request on the lock socket.
type request struct {
	Action string `cbor:"action"`
	Path   string `cbor:"path"`
}

// response acknowledges a request. For acquire, it is sent only once
// the lock is granted.
type response struct {
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`
}

// Server grants exclusive, path-keyed locks to connected workers.
type Server struct {
	socketPath string
	logger     *slog.Logger
	registry   *registry
	ready      chan struct{}

	// nextOwner assigns a connection identity used as the lock owner
	// key in the registry.
	nextOwner atomic.Uint64

	// activeConnections tracks in-flight connection handlers so Serve
	// can wait for them during shutdown.
	activeConnections sync.WaitGroup
}

// NewServer creates a lock server that will listen on socketPath.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		logger:     logger,
		registry:   newRegistry(),
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the server is listening. Workers must not be
// spawned before this.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// SocketPath returns the endpoint this server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve accepts worker connections until ctx is cancelled, then stops
// accepting and waits for active connections to wind down. Any stale
// socket file at the configured path is removed before listening, and
// the socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	close(s.ready)
	s.logger.Debug("lock server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("lock server accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// handleConnection serves one worker session. Requests are decoded by
// a reader goroutine so that a disconnect surfaces even while the
// handler is parked waiting for a grant; whenever the connection ends,
// for any reason, every lock the worker held or queued for is
// released.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Scope a context to this connection so the reader goroutine is
	// released as soon as the handler returns, whatever the reason.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	owner := s.nextOwner.Add(1)
	defer s.registry.releaseAll(owner)

	requests := make(chan request)
	readFailed := make(chan error, 1)
	go func() {
		decoder := codec.NewDecoder(conn)
		for {
			var req request
			if err := decoder.Decode(&req); err != nil {
				readFailed <- err
				return
			}
			select {
			case requests <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	encoder := codec.NewEncoder(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readFailed:
			if !errors.Is(err, io.EOF) {
				// Garbled CBOR lands here too: the connection is
				// dropped and its locks released, per protocol.
				s.logger.Debug("lock connection read failed", "owner", owner, "error", err)
			}
			return
		case req := <-requests:
			if !s.handleRequest(ctx, encoder, owner, req, readFailed) {
				return
			}
		}
	}
}

// handleRequest processes one decoded request and writes its
// acknowledgment. Returns false when the connection must be dropped.
func (s *Server) handleRequest(ctx context.Context, encoder *codec.Encoder, owner uint64, req request, readFailed <-chan error) bool {
	switch req.Action {
	case actionAcquire:
		if req.Path == "" {
			s.writeProtocolError(encoder, owner, "acquire requires a path")
			return false
		}
		granted := s.registry.acquire(owner, req.Path)
		select {
		case <-granted:
		case <-readFailed:
			// Worker died while queued. Its claim is removed by the
			// deferred releaseAll.
			return false
		case <-ctx.Done():
			return false
		}
		s.logger.Debug("lock granted", "owner", owner, "path", req.Path)
		return encoder.Encode(response{OK: true}) == nil

	case actionRelease:
		if req.Path == "" {
			s.writeProtocolError(encoder, owner, "release requires a path")
			return false
		}
		s.registry.release(owner, req.Path)
		s.logger.Debug("lock released", "owner", owner, "path", req.Path)
		return encoder.Encode(response{OK: true}) == nil

	default:
		s.writeProtocolError(encoder, owner, fmt.Sprintf("unknown action %q", req.Action))
		return false
	}
}

// writeProtocolError sends a failure response before the connection is
// dropped. The write is best-effort: the connection is closing either
// way, and closure releases the worker's locks.
func (s *Server) writeProtocolError(encoder *codec.Encoder, owner uint64, message string) {
	s.logger.Debug("lock protocol violation", "owner", owner, "error", message)
	_ = encoder.Encode(response{OK: false, Error: message})
}

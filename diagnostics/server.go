// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/fixwright/fixwright/lib/codec"
)

// ack is the reply to a posted message, sent after rendering completes.
type ack struct {
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`
}

// renderRequest carries a message from a connection handler to the
// render goroutine. rendered is closed when the message is fully on
// the output.
type renderRequest struct {
	message  Message
	rendered chan struct{}
}

// Server receives messages from workers and renders them one at a
// time in arrival order.
type Server struct {
	socketPath string
	renderer   *Renderer
	logger     *slog.Logger
	ready      chan struct{}

	// renderRequests is deliberately unbuffered: the handoff to the
	// render goroutine is the ordering point, and its capacity is the
	// backpressure bound.
	renderRequests chan renderRequest

	activeConnections sync.WaitGroup
}

// NewServer creates a diagnostics server that will listen on
// socketPath and render through renderer.
func NewServer(socketPath string, renderer *Renderer, logger *slog.Logger) *Server {
	return &Server{
		socketPath:     socketPath,
		renderer:       renderer,
		logger:         logger,
		ready:          make(chan struct{}),
		renderRequests: make(chan renderRequest),
	}
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// SocketPath returns the endpoint this server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve accepts worker connections until ctx is cancelled. Rendering
// runs in a single goroutine owned by this call; render failures are
// logged, not propagated, since a broken terminal must not fail the
// build.
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

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		for {
			select {
			case <-ctx.Done():
				return
			case request := <-s.renderRequests:
				if err := s.renderer.Render(request.message); err != nil {
					s.logger.Warn("failed to render message", "error", err)
				}
				close(request.rendered)
			}
		}
	}()

	close(s.ready)
	s.logger.Debug("diagnostics server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("diagnostics server accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	<-renderDone
	return nil
}

// handleConnection decodes messages from one worker and acknowledges
// each after it has been rendered. An invalid message drops the
// connection without disturbing other workers.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Unblock the decoder on shutdown; otherwise an idle worker
	// connection would hold up Serve's drain.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	decoder := codec.NewDecoder(conn)
	encoder := codec.NewEncoder(conn)
	for {
		var message Message
		if err := decoder.Decode(&message); err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Debug("diagnostics connection read failed", "error", err)
			}
			return
		}

		if err := message.validate(); err != nil {
			s.logger.Debug("invalid diagnostics message", "error", err)
			_ = encoder.Encode(ack{OK: false, Error: err.Error()})
			return
		}

		request := renderRequest{message: message, rendered: make(chan struct{})}
		select {
		case s.renderRequests <- request:
		case <-ctx.Done():
			return
		}
		select {
		case <-request.rendered:
		case <-ctx.Done():
			return
		}

		if err := encoder.Encode(ack{OK: true}); err != nil {
			return
		}
	}
}

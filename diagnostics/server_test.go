// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fixwright/fixwright/lib/codec"
	"github.com/fixwright/fixwright/lib/testutil"
	"github.com/muesli/termenv"
)

// syncBuffer makes the captured output safe to inspect from the test
// goroutine while the render goroutine is still running.
type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// startServer runs a diagnostics server rendering unstyled text into
// the returned buffer.
func startServer(t *testing.T) (string, *syncBuffer) {
	t.Helper()

	output := &syncBuffer{}
	socketPath := filepath.Join(testutil.SocketDir(t), "diagnostics.sock")
	server := NewServer(socketPath, NewRenderer(output, termenv.Ascii), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, 5*time.Second, "server shutdown"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})

	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")
	return socketPath, output
}

func TestPostIsAcknowledgedAfterRender(t *testing.T) {
	socketPath, output := startServer(t)
	ctx := context.Background()

	// The acknowledgment gates on render completion, so the output
	// must already contain each message when Post returns.
	for i := 1; i <= 3; i++ {
		message := Fixing(fmt.Sprintf("file%d.rs", i), i)
		if err := Post(ctx, socketPath, message); err != nil {
			t.Fatalf("Post: %v", err)
		}
		if !strings.Contains(output.String(), fmt.Sprintf("file%d.rs", i)) {
			t.Errorf("output missing file%d.rs after acknowledged post", i)
		}
	}
}

func TestSequentialPostsRenderInArrivalOrder(t *testing.T) {
	socketPath, output := startServer(t)
	ctx := context.Background()

	want := "Fixing a.rs (1 fix)\n" +
		"Fixing b.rs (2 fixes)\n" +
		"Fixing c.rs (3 fixes)\n"
	if err := Post(ctx, socketPath, Fixing("a.rs", 1)); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if err := Post(ctx, socketPath, Fixing("b.rs", 2)); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if err := Post(ctx, socketPath, Fixing("c.rs", 3)); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if output.String() != want {
		t.Errorf("output %q, want %q", output.String(), want)
	}
}

func TestConcurrentMultiLineMessagesDoNotInterleave(t *testing.T) {
	socketPath, output := startServer(t)
	ctx := context.Background()

	const senders = 8
	var posts sync.WaitGroup
	for i := 0; i < senders; i++ {
		i := i
		posts.Add(1)
		go func() {
			defer posts.Done()
			crate := fmt.Sprintf("crate%d", i)
			files := []string{
				fmt.Sprintf("%s/a.rs", crate),
				fmt.Sprintf("%s/b.rs", crate),
			}
			if err := Post(ctx, socketPath, FixFailed(files, crate)); err != nil {
				t.Errorf("Post %s: %v", crate, err)
			}
		}()
	}
	posts.Wait()

	rendered := output.String()
	for i := 0; i < senders; i++ {
		crate := fmt.Sprintf("crate%d", i)
		// Each message's complete multi-line rendering must appear as
		// one contiguous block.
		var block bytes.Buffer
		if err := NewRenderer(&block, termenv.Ascii).Render(FixFailed([]string{
			fmt.Sprintf("%s/a.rs", crate),
			fmt.Sprintf("%s/b.rs", crate),
		}, crate)); err != nil {
			t.Fatalf("Render: %v", err)
		}
		if !strings.Contains(rendered, block.String()) {
			t.Errorf("output does not contain contiguous block for %s", crate)
		}
	}

	if got, want := strings.Count(rendered, "warning: "), senders; got != want {
		t.Errorf("warning count = %d, want %d", got, want)
	}
}

func TestInvalidMessageDropsConnection(t *testing.T) {
	socketPath, output := startServer(t)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(Message{Kind: "bogus"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoder := codec.NewDecoder(conn)
	var reply ack
	if err := decoder.Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.OK {
		t.Error("server acknowledged an invalid message")
	}
	if err := decoder.Decode(&reply); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after invalid message, got %v", err)
	}

	// Other senders are unaffected.
	if err := Post(context.Background(), socketPath, Fixing("ok.rs", 1)); err != nil {
		t.Fatalf("Post after violation: %v", err)
	}
	if !strings.Contains(output.String(), "ok.rs") {
		t.Error("valid message not rendered after violation")
	}
}

func TestPostValidatesLocally(t *testing.T) {
	if err := Post(context.Background(), "/nonexistent.sock", Fixing("", 0)); err == nil {
		t.Fatal("expected validation error before dialing")
	}
}

func TestPostToMissingEndpointFails(t *testing.T) {
	err := Post(context.Background(), filepath.Join(t.TempDir(), "absent.sock"), Fixing("a.rs", 1))
	if err == nil {
		t.Fatal("expected connection error")
	}
}

// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os/exec"
	"testing"
)

func TestExitStatusFromChild(t *testing.T) {
	err := exec.Command("sh", "-c", "exit 42").Run()
	if err == nil {
		t.Fatal("expected non-zero exit error")
	}

	code, ok := ExitStatus(err)
	if !ok {
		t.Fatalf("ExitStatus did not recognize %v", err)
	}
	if code != 42 {
		t.Errorf("code = %d, want 42", code)
	}
}

func TestExitStatusWrappedError(t *testing.T) {
	err := exec.Command("sh", "-c", "exit 3").Run()
	wrapped := fmt.Errorf("running orchestrator: %w", err)

	code, ok := ExitStatus(wrapped)
	if !ok || code != 3 {
		t.Errorf("ExitStatus(wrapped) = (%d, %v), want (3, true)", code, ok)
	}
}

func TestExitStatusUnrelatedError(t *testing.T) {
	if _, ok := ExitStatus(fmt.Errorf("no such file")); ok {
		t.Error("ExitStatus recognized an unrelated error")
	}
}

func TestExitErrorCode(t *testing.T) {
	err := &ExitError{Code: 7}
	if err.ExitCode() != 7 {
		t.Errorf("ExitCode = %d, want 7", err.ExitCode())
	}
	if err.Error() != "exit status 7" {
		t.Errorf("Error = %q", err.Error())
	}
}

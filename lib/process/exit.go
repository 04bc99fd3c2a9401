// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Fatal writes "error: err" to stderr and exits with code 1. This is
// the standard fixwright binary entrypoint error handler. Use it in
// main() for errors from run() where the structured logger may not be
// initialized.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// ExitError carries a specific process exit code up through an error
// return. main() unwraps it to exit with that code instead of 1,
// which is how the session surfaces the orchestrator's own status
// without altering it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode returns the code the process should exit with.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitStatus extracts the exit code from an error returned by
// exec.Cmd.Run or Wait. Returns (code, true) when the child ran and
// exited (including non-zero status), and (0, false) when the error
// is nil-unrelated: the child never started, or was killed by a
// signal without an exit code.
func ExitStatus(err error) (int, bool) {
	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		return 0, false
	}
	if code := exitError.ExitCode(); code >= 0 {
		return code, true
	}
	return 0, false
}

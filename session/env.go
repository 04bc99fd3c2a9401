// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Environment variables carrying the coordination endpoints across
// the process boundary. Set by the supervisor on the orchestrator,
// inherited by every worker it spawns.
const (
	EnvLockSocket        = "FIXWRIGHT_LOCK_SOCKET"
	EnvDiagnosticsSocket = "FIXWRIGHT_DIAGNOSTICS_SOCKET"
)

// EnvBrokenCode tells workers to attempt fixes even when the code
// already fails to compile. Set by the --broken-code flag.
const EnvBrokenCode = "FIXWRIGHT_BROKEN_CODE"

// ErrNotCoordinated reports that no coordination session published
// its endpoints to this process.
var ErrNotCoordinated = errors.New("coordination endpoints not present in environment")

// Endpoints are the two socket paths a worker connects back to.
type Endpoints struct {
	LockSocket        string `env:"FIXWRIGHT_LOCK_SOCKET"`
	DiagnosticsSocket string `env:"FIXWRIGHT_DIAGNOSTICS_SOCKET"`
}

// Discover reads the coordination endpoints from the process
// environment. When either variable is absent it returns
// [ErrNotCoordinated]: workers fail closed rather than editing files
// unsynchronized, since an uncoordinated concurrent edit can corrupt
// a file another worker holds the lock on.
func Discover() (Endpoints, error) {
	var endpoints Endpoints
	if err := env.Parse(&endpoints); err != nil {
		return Endpoints{}, fmt.Errorf("parsing coordination environment: %w", err)
	}
	if endpoints.LockSocket == "" || endpoints.DiagnosticsSocket == "" {
		return Endpoints{}, ErrNotCoordinated
	}
	return endpoints, nil
}

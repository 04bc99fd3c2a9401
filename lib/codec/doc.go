// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR wire format for the coordination sockets.
// Both the lock protocol and the diagnostics protocol encode their
// requests and responses through this package so the encoder and
// decoder configuration is defined once.
package codec

// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import "fmt"

// Kind discriminates the message variants on the wire.
type Kind string

const (
	// KindFixing reports that a worker rewrote a file.
	KindFixing Kind = "fixing"
	// KindReplaceFailed reports that applying a suggestion to a file
	// failed; the file was left unmodified for that suggestion.
	KindReplaceFailed Kind = "replace-failed"
	// KindFixFailed reports that recompilation after rewriting still
	// produced errors.
	KindFixFailed Kind = "fix-failed"
)

// Message is one structured event from a worker. Exactly one variant's
// fields are populated, selected by Kind; use the constructors.
type Message struct {
	Kind Kind `cbor:"kind"`

	// File is the rewritten file (fixing) or the file a suggestion
	// could not be applied to (replace-failed).
	File string `cbor:"file,omitempty"`

	// Fixes is the number of suggestions applied (fixing).
	Fixes int `cbor:"fixes,omitempty"`

	// Detail is the underlying diagnostic text (replace-failed).
	Detail string `cbor:"detail,omitempty"`

	// Files lists the files the compiler still reported errors in
	// after fixes were applied (fix-failed).
	Files []string `cbor:"files,omitempty"`

	// Crate names the compilation unit that still failed (fix-failed).
	// Empty when the unit is unnamed.
	Crate string `cbor:"crate,omitempty"`
}

// Fixing reports that file was rewritten with the given number of
// applied suggestions.
func Fixing(file string, fixes int) Message {
	return Message{Kind: KindFixing, File: file, Fixes: fixes}
}

// ReplaceFailed reports that a suggestion could not be applied to
// file; detail is the underlying error text.
func ReplaceFailed(file string, detail string) Message {
	return Message{Kind: KindReplaceFailed, File: file, Detail: detail}
}

// FixFailed reports that after rewriting, recompiling crate (empty if
// unnamed) still produced errors localized to files.
func FixFailed(files []string, crate string) Message {
	return Message{Kind: KindFixFailed, Files: files, Crate: crate}
}

// validate rejects messages that cannot be rendered. A violation
// drops the sending connection.
func (m Message) validate() error {
	switch m.Kind {
	case KindFixing:
		if m.File == "" {
			return fmt.Errorf("fixing message requires a file")
		}
		if m.Fixes < 1 {
			return fmt.Errorf("fixing message requires a positive fix count, got %d", m.Fixes)
		}
	case KindReplaceFailed:
		if m.File == "" {
			return fmt.Errorf("replace-failed message requires a file")
		}
	case KindFixFailed:
	default:
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return nil
}

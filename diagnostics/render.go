// Copyright 2026 The Fixwright Authors
// SPDX-License-Identifier: Apache-2.0

package diagnostics

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// reportBugGuidance closes every failure message. Suggestion
// application failing after the compiler offered the suggestion means
// one of the two is wrong about the source text.
const reportBugGuidance = `This likely indicates a bug in either the compiler or fixwright itself,
and we would appreciate a bug report! You're likely to see
a number of compiler warnings after this message which fixwright
attempted to fix but failed. If you could open an issue at
https://github.com/fixwright/fixwright/issues
quoting the full output of this command we'd be very appreciative!

`

// Renderer turns messages into styled terminal text. All terminal
// state lives here: styles are rendered per segment with their own
// resets, so nothing leaks from one message into the next.
type Renderer struct {
	writer  io.Writer
	verb    lipgloss.Style
	warning lipgloss.Style
	bold    lipgloss.Style
}

// NewRenderer creates a renderer writing to writer with the given
// color profile. Pass termenv.Ascii for unstyled output.
func NewRenderer(writer io.Writer, profile termenv.Profile) *Renderer {
	// Bind styles to an explicit renderer: lipgloss's default one
	// detects the profile from the process's stdout, which is wrong
	// for any other writer.
	styles := lipgloss.NewRenderer(writer, termenv.WithProfile(profile))
	styles.SetColorProfile(profile)

	return &Renderer{
		writer:  writer,
		verb:    styles.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		warning: styles.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		bold:    styles.NewStyle().Bold(true),
	}
}

// Render writes one message. The full rendering is buffered and
// written in a single call, so a message's lines are contiguous on
// the output even if something else shares the stream.
func (r *Renderer) Render(message Message) error {
	var buffer bytes.Buffer
	switch message.Kind {
	case KindFixing:
		r.renderFixing(&buffer, message)
	case KindReplaceFailed:
		r.renderReplaceFailed(&buffer, message)
	case KindFixFailed:
		r.renderFixFailed(&buffer, message)
	default:
		return fmt.Errorf("cannot render message kind %q", message.Kind)
	}

	if _, err := r.writer.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("writing rendered message: %w", err)
	}
	return nil
}

func (r *Renderer) renderFixing(buffer *bytes.Buffer, message Message) {
	noun := "fix"
	if message.Fixes > 1 {
		noun = "fixes"
	}
	fmt.Fprintf(buffer, "%s %s (%d %s)\n", r.verb.Render("Fixing"), message.File, message.Fixes, noun)
}

func (r *Renderer) renderReplaceFailed(buffer *bytes.Buffer, message Message) {
	r.writeWarning(buffer)
	fmt.Fprintf(buffer, "%s\n", r.bold.Render(fmt.Sprintf("error applying suggestions to `%s`", message.File)))
	fmt.Fprintf(buffer, "The full error message was:\n\n> %s\n\n", message.Detail)
	buffer.WriteString(reportBugGuidance)
}

func (r *Renderer) renderFixFailed(buffer *bytes.Buffer, message Message) {
	r.writeWarning(buffer)
	header := "failed to automatically apply fixes suggested by the compiler"
	if message.Crate != "" {
		header = fmt.Sprintf("%s to crate `%s`", header, message.Crate)
	}
	fmt.Fprintf(buffer, "%s\n", r.bold.Render(header))
	if len(message.Files) > 0 {
		buffer.WriteString("\nafter fixes were automatically applied the compiler reported errors within these files:\n\n")
		for _, file := range message.Files {
			fmt.Fprintf(buffer, "  * %s\n", file)
		}
		buffer.WriteString("\n")
	}
	buffer.WriteString(reportBugGuidance)
}

// writeWarning emits the standard "warning: " prefix.
func (r *Renderer) writeWarning(buffer *bytes.Buffer) {
	fmt.Fprintf(buffer, "%s: ", r.warning.Render("warning"))
}

// Warning writes a one-off warning outside the message stream: a bold
// header line after the standard prefix, then plain body lines. The
// supervisor uses this for version-control warnings before any worker
// runs.
func (r *Renderer) Warning(header string, body ...string) error {
	var buffer bytes.Buffer
	r.writeWarning(&buffer)
	fmt.Fprintf(&buffer, "%s\n", r.bold.Render(header))
	for _, line := range body {
		fmt.Fprintf(&buffer, "%s\n", line)
	}
	if _, err := r.writer.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("writing warning: %w", err)
	}
	return nil
}

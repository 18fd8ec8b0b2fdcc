// Package ui renders the installer's terminal output: a stepwise progress
// view, release-note rendering, and the shared logger.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
)

// NewLogger builds the installer logger. Verbose lowers the level to Debug.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "fcmcp",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// Stepper prints one line per install step, updated with the step's outcome.
type Stepper struct {
	w io.Writer
}

// NewStepper creates a Stepper writing to w.
func NewStepper(w io.Writer) *Stepper {
	return &Stepper{w: w}
}

// Start announces a step in progress.
func (s *Stepper) Start(name string) {
	fmt.Fprintf(s.w, "%s %s\n", SubtitleStyle.Render("..."), name)
}

// Success marks a step done, with an optional detail.
func (s *Stepper) Success(name, detail string) {
	line := SuccessStyle.Render("ok ") + " " + name
	if detail != "" {
		line += " " + SubtitleStyle.Render(detail)
	}
	fmt.Fprintln(s.w, line)
}

// Warn marks a step degraded but non-fatal.
func (s *Stepper) Warn(name, detail string) {
	line := WarningStyle.Render("warn") + " " + name
	if detail != "" {
		line += " " + SubtitleStyle.Render(detail)
	}
	fmt.Fprintln(s.w, line)
}

// Fail marks a step failed.
func (s *Stepper) Fail(name string, err error) {
	fmt.Fprintf(s.w, "%s %s: %v\n", ErrorStyle.Render("fail"), name, err)
}

// Note prints an informational line outside the step flow.
func (s *Stepper) Note(text string) {
	fmt.Fprintln(s.w, SubtitleStyle.Render(text))
}

// RenderNotes renders release-note markdown for the terminal. On any render
// failure the raw markdown is returned so notes are never lost.
func RenderNotes(markdown string, width int) string {
	if markdown == "" {
		return ""
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

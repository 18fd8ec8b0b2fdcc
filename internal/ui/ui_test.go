package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestStepperLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStepper(&buf)

	s.Start("resolving latest release")
	s.Success("resolving latest release", "v1.2.0")
	s.Warn("registration", "claude CLI not found")
	s.Fail("extracting archive", errors.New("unexpected EOF"))

	out := buf.String()
	for _, want := range []string{
		"resolving latest release",
		"v1.2.0",
		"claude CLI not found",
		"unexpected EOF",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", got, out)
	}
}

func TestRenderNotesEmpty(t *testing.T) {
	if got := RenderNotes("", 80); got != "" {
		t.Fatalf("empty notes rendered to %q", got)
	}
}

func TestRenderNotesNeverLosesContent(t *testing.T) {
	md := "## Changes\n\n- faster extraction\n- bug fixes\n"
	out := RenderNotes(md, 80)
	if !strings.Contains(out, "faster extraction") {
		t.Fatalf("rendered notes lost content:\n%s", out)
	}
}

func TestNewLoggerVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, true)
	logger.Debug("probe")
	if !strings.Contains(buf.String(), "probe") {
		t.Fatal("verbose logger should emit debug lines")
	}

	buf.Reset()
	logger = NewLogger(&buf, false)
	logger.Debug("probe")
	if strings.Contains(buf.String(), "probe") {
		t.Fatal("non-verbose logger should suppress debug lines")
	}
}

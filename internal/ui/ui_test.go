package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestStepPrinter(t *testing.T) {
	Init(true)

	var buf bytes.Buffer
	p := NewStepPrinter(&buf)
	p.Step(1, 3, "Alpha", "new project", true)
	p.Step(2, 3, "Beta", "unchanged", false)
	p.Step(3, 3, "Gamma", "doc count changed (1 → 2)", true)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if want := "[1/3] ✓ Alpha new project"; lines[0] != want {
		t.Errorf("line 1 = %q, want %q", lines[0], want)
	}
	if want := "[2/3] · Beta"; lines[1] != want {
		t.Errorf("line 2 = %q, want %q", lines[1], want)
	}
	if !strings.Contains(lines[2], "doc count changed (1 → 2)") {
		t.Errorf("line 3 missing reason: %q", lines[2])
	}
}

func TestRenderHelpersPlain(t *testing.T) {
	Init(true)

	for _, fn := range []func(string) string{RenderAccent, RenderPass, RenderWarn, RenderFail, RenderMuted, RenderBold} {
		if got := fn("text"); got != "text" {
			t.Errorf("render with colors off = %q, want %q", got, "text")
		}
	}
}

package ui

import (
	"fmt"
	"io"
)

// StepPrinter writes one line per processed project, in listing order.
// It satisfies the sync engine's Progress interface.
type StepPrinter struct {
	w io.Writer
}

// NewStepPrinter returns a StepPrinter writing to w.
func NewStepPrinter(w io.Writer) *StepPrinter {
	return &StepPrinter{w: w}
}

// Step prints a single progress line. Synced projects get a check and their
// reason; unchanged ones are dimmed.
func (p *StepPrinter) Step(index, total int, name, reason string, synced bool) {
	counter := RenderMuted(fmt.Sprintf("[%d/%d]", index, total))
	if synced {
		fmt.Fprintf(p.w, "%s %s %s %s\n", counter, RenderPass("✓"), name, RenderAccent(reason))
		return
	}
	fmt.Fprintf(p.w, "%s %s %s\n", counter, RenderMuted("·"), RenderMuted(name))
}

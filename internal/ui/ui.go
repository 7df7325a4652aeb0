// Package ui provides terminal output styling for the claude-sync CLI.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	ColorAccent = lipgloss.Color("#D97757") // terracotta, headers and activity
	ColorPass   = lipgloss.Color("#2DA44E") // green, synced
	ColorWarn   = lipgloss.Color("#F4D03F") // amber, orphans and soft failures
	ColorFail   = lipgloss.Color("#E74C3C") // red, errors
	ColorMuted  = lipgloss.Color("244")     // gray, unchanged and detail
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	passStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// Init applies color preferences for the whole process. Call once before any
// rendering. termenv already honors NO_COLOR; the flag forces it.
func Init(noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// Interactive reports whether stdin and stdout are both terminals, meaning
// prompts may be shown.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderAccent styles text in the accent color.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderPass styles text as a success.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn styles text as a warning.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail styles text as a failure.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderMuted styles text as secondary detail.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderBold styles text bold.
func RenderBold(s string) string { return boldStyle.Render(s) }

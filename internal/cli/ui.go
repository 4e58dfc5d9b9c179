package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette, ANSI 256 codes.
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorHint   = lipgloss.Color("75")
	colorInk    = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorRule   = lipgloss.Color("240")
)

var (
	styleName    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent) // member names, screen titles
	styleAccent  = lipgloss.NewStyle().Foreground(colorAccent)            // relation codes, filter input
	styleCount   = lipgloss.NewStyle().Foreground(colorAccent)
	styleInk     = lipgloss.NewStyle().Foreground(colorInk)
	styleMuted   = lipgloss.NewStyle().Foreground(colorRule)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleLabel   = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
)

// Status line markers.
var (
	markDone = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	markFail = lipgloss.NewStyle().Foreground(colorFail).Render("✗")
	markWarn = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	markNote = lipgloss.NewStyle().Foreground(colorMuted).Render("›")
)

const iconArrow = "→"

func status(mark, format string, args ...any) {
	fmt.Println(mark + " " + fmt.Sprintf(format, args...))
}

func sayDone(format string, args ...any) { status(markDone, format, args...) }

func sayFailed(format string, args ...any) { status(markFail, format, args...) }

func sayNote(format string, args ...any) { status(markNote, format, args...) }

// sayWarn tints the whole message, not only the marker.
func sayWarn(format string, args ...any) {
	status(markWarn, "%s", lipgloss.NewStyle().Foreground(colorWarn).Render(fmt.Sprintf(format, args...)))
}

// sayDetail prints an indented, muted follow-up to the previous status line.
func sayDetail(format string, args ...any) {
	fmt.Println("  " + styleMuted.Render(fmt.Sprintf(format, args...)))
}

// sayWrote points at a file the command produced.
func sayWrote(path string) {
	fmt.Println("  " + styleMuted.Render(iconArrow) + " " + styleInk.Render(path))
}

// sayField prints one row of a label/value listing such as the seed summary.
func sayField(label, value string) {
	fmt.Println(styleLabel.Render(label) + " " + styleInk.Render(value))
}

// sayHint suggests the command to run next, preceded by a blank line.
func sayHint(what, cmd string) {
	fmt.Println()
	fmt.Println(styleMuted.Render(what+":") + " " + lipgloss.NewStyle().Foreground(colorHint).Render(cmd))
}

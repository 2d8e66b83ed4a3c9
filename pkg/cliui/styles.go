package cliui

import (
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	KeyStyle    = lipgloss.NewStyle().Bold(true)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	// UserPrompt and AssistantPrompt label the two sides of a chat.
	UserPrompt      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	AssistantPrompt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

var colorDisabled atomic.Bool

// DisableColor switches every style to the ASCII profile so output carries no
// escape sequences.
func DisableColor() {
	colorDisabled.Store(true)
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ColorDisabled reports whether DisableColor has been called.
func ColorDisabled() bool {
	return colorDisabled.Load()
}

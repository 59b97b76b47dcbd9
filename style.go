package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	keyword = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Render

	paragraph = lipgloss.NewStyle().
			Width(78).
			Padding(0, 0, 0, 2).
			Render
)

// setColorProfile drops colors when output is not a terminal.
func setColorProfile(isTerminal bool) {
	if !isTerminal {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

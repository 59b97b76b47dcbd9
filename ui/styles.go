package ui

import "github.com/charmbracelet/lipgloss"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	yellow    = lipgloss.AdaptiveColor{Light: "#A67C00", Dark: "#FFFF00"}
	red       = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF4545"}
	gray      = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}

	statusBarBg = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(lipgloss.Color("#5A56E0")).
			Bold(true).
			Padding(0, 1)

	headerNoteStyle = lipgloss.NewStyle().
			Foreground(gray).
			PaddingLeft(1)

	statusBarStyle = lipgloss.NewStyle().
			Background(statusBarBg)

	paramsStyle = lipgloss.NewStyle().
			Foreground(gray)

	helpViewStyle = lipgloss.NewStyle().
			Foreground(gray).
			PaddingTop(1)
)

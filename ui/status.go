package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/muesli/reflow/truncate"
)

const ellipsis = "…"

// stateIcon returns an icon for the status.
func stateIcon(s tts.Status) string {
	if s.IsError() {
		return "✗"
	}
	switch s.State {
	case tts.StateSpeaking:
		return "▶"
	case tts.StatePaused:
		return "⏸"
	case tts.StateEnded:
		return "✓"
	default:
		return "■"
	}
}

// stateColor returns the color for the status.
func stateColor(s tts.Status) lipgloss.TerminalColor {
	if s.IsError() {
		return red
	}
	switch s.State {
	case tts.StateSpeaking, tts.StateEnded:
		return mintGreen
	case tts.StatePaused:
		return yellow
	default:
		return gray
	}
}

// statusText is the plain status line: icon and message, truncated to
// width cells.
func statusText(s tts.Status, width int) string {
	msg := s.Message
	if msg == "" {
		msg = "Ready"
	}
	line := stateIcon(s) + " " + msg
	if width > 0 {
		line = truncate.StringWithTail(line, uint(width), ellipsis) //nolint:gosec
	}
	return line
}

// statusView renders the status bar. spin is shown while speaking.
func statusView(s tts.Status, spin string, width int) string {
	text := statusText(s, width-2)
	if s.State == tts.StateSpeaking && !s.IsError() {
		text = spin + " " + text
	}
	style := statusBarStyle.Foreground(stateColor(s))
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(text)
}

// paramsText summarizes the parameters for the next play.
func paramsText(p tts.Parameters) string {
	voice := p.Voice
	if voice == "" {
		voice = "engine default"
	}
	return fmt.Sprintf("voice: %s  rate: %.1fx  pitch: %.1fx  volume: %d%%",
		voice, p.Rate, p.Pitch, int(p.Volume*100+0.5))
}

// paramMessage is shown after a parameter change.
func paramMessage(field tts.Field, value float64) string {
	if field == tts.FieldVolume {
		return fmt.Sprintf("Volume %d%%", int(value*100+0.5))
	}
	return fmt.Sprintf("%s %.1fx", capitalize(field.String()), value)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

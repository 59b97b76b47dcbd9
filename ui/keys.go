package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play       key.Binding
	Pause      key.Binding
	Stop       key.Binding
	NextVoice  key.Binding
	PrevVoice  key.Binding
	Faster     key.Binding
	Slower     key.Binding
	PitchUp    key.Binding
	PitchDown  key.Binding
	Louder     key.Binding
	Quieter    key.Binding
	Clear      key.Binding
	ToggleHelp key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Play:       key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play")),
		Pause:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "pause/resume")),
		Stop:       key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "stop")),
		NextVoice:  key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "next voice")),
		PrevVoice:  key.NewBinding(key.WithKeys("alt+v"), key.WithHelp("alt+v", "previous voice")),
		Faster:     key.NewBinding(key.WithKeys("alt+up"), key.WithHelp("alt+↑", "faster")),
		Slower:     key.NewBinding(key.WithKeys("alt+down"), key.WithHelp("alt+↓", "slower")),
		PitchUp:    key.NewBinding(key.WithKeys("alt+right"), key.WithHelp("alt+→", "higher pitch")),
		PitchDown:  key.NewBinding(key.WithKeys("alt+left"), key.WithHelp("alt+←", "lower pitch")),
		Louder:     key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "louder")),
		Quieter:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "quieter")),
		Clear:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear text")),
		ToggleHelp: key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Pause, k.Stop, k.NextVoice, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Pause, k.Stop, k.Clear},
		{k.NextVoice, k.PrevVoice, k.Faster, k.Slower},
		{k.PitchUp, k.PitchDown, k.Louder, k.Quieter},
		{k.ToggleHelp, k.Quit},
	}
}

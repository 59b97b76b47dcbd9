package ui

// Config contains TUI-specific configuration.
type Config struct {
	AltScreen   bool `env:"READALOUD_ALT_SCREEN"   envDefault:"true"`
	EnableMouse bool `env:"READALOUD_MOUSE"`
	StatusWidth int  `env:"READALOUD_STATUS_WIDTH"` // 0 follows the terminal width

	// File the text was loaded from
	Path string

	// Reload the text when Path changes on disk
	Watch bool

	// Read keys from the terminal because stdin carried the text
	InputTTY bool
}

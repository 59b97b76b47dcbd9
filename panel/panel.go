package panel

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Side selects one of the two panels.
type Side int

const (
	// Left is the first panel.
	Left Side = iota
	// Right is the second panel.
	Right
)

// String returns the string representation of the side.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard is the clipboard of the desktop session.
type SystemClipboard struct{}

// ReadAll returns the clipboard text.
func (SystemClipboard) ReadAll() (string, error) {
	return clipboard.ReadAll()
}

// WriteAll replaces the clipboard text.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// ClipboardSupported reports whether a clipboard tool was found.
func ClipboardSupported() bool {
	return !clipboard.Unsupported
}

// Panel holds the text of both panels.
type Panel struct {
	mu    sync.RWMutex
	texts [2]string
}

// New creates an empty panel.
func New() *Panel {
	return &Panel{}
}

// Set replaces the text of side.
func (p *Panel) Set(side Side, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts[side] = text
}

// Text returns the text of side.
func (p *Panel) Text(side Side) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.texts[side]
}

// Stats returns the counters of side.
func (p *Panel) Stats(side Side) Stats {
	return Count(p.Text(side))
}

// Clear empties side.
func (p *Panel) Clear(side Side) {
	p.Set(side, "")
}

// Copy writes the text of side to cb.
func (p *Panel) Copy(side Side, cb Clipboard) error {
	if err := cb.WriteAll(p.Text(side)); err != nil {
		return fmt.Errorf("unable to copy %s panel: %w", side, err)
	}
	return nil
}

// Paste replaces side with the clipboard text. On failure the panel is
// left untouched.
func (p *Panel) Paste(side Side, cb Clipboard) error {
	text, err := cb.ReadAll()
	if err != nil {
		return fmt.Errorf("unable to paste into %s panel: %w", side, err)
	}
	p.Set(side, text)
	return nil
}

package tts

import (
	"io"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// TextSource is the text buffer to be spoken. The controller reads it only
// when Play is called; edits afterwards do not affect the utterance in
// flight.
type TextSource struct {
	mu      sync.RWMutex
	content string
	origin  string
}

// NewTextSource creates an empty text source.
func NewTextSource() *TextSource {
	return &TextSource{}
}

// SetContent replaces the buffer with manually entered text.
func (s *TextSource) SetContent(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = text
	s.origin = ""
}

// LoadFromBytes decodes b as UTF-8 and replaces the buffer and origin.
// Malformed input yields a *DecodeError and leaves the buffer untouched.
func (s *TextSource) LoadFromBytes(origin string, b []byte) error {
	text, err := decodeUTF8(origin, b)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = text
	s.origin = origin
	return nil
}

// LoadFromReader reads r to the end and loads the bytes. A read failure
// yields an *IOError and leaves the buffer untouched.
func (s *TextSource) LoadFromReader(origin string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return &IOError{Origin: origin, Err: err}
	}
	return s.LoadFromBytes(origin, b)
}

// Clear resets content and origin.
func (s *TextSource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = ""
	s.origin = ""
}

// Content returns the current text.
func (s *TextSource) Content() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content
}

// Origin returns the file name the text was loaded from, if any.
func (s *TextSource) Origin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}

// CharCount returns the number of characters (runes) in the buffer.
func (s *TextSource) CharCount() int {
	return utf8.RuneCountInString(s.Content())
}

// Snapshot returns content and origin atomically.
func (s *TextSource) Snapshot() (content, origin string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content, s.origin
}

// decodeUTF8 validates b and strips a leading byte order mark.
func decodeUTF8(origin string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", &DecodeError{Origin: origin, Offset: firstInvalid(b)}
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return "", &DecodeError{Origin: origin, Offset: firstInvalid(b)}
	}
	return string(out), nil
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

package tts

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors for the TTS system.
var (
	// ErrEmptyInput is reported when Play is called without any text.
	ErrEmptyInput = errors.New("no text to speak")
	// ErrDecode indicates text could not be decoded as UTF-8.
	ErrDecode = errors.New("invalid UTF-8 text")
	// ErrIO indicates the text source could not be read.
	ErrIO = errors.New("unable to read text source")
	// ErrEngine indicates the speech engine failed.
	ErrEngine = errors.New("speech engine failed")
	// ErrVoiceNotFound indicates the requested voice is not in the catalog.
	// It never reaches observers: playback falls back to the engine default.
	ErrVoiceNotFound = errors.New("requested voice not found")
	// ErrEngineNotAvailable indicates the engine binary or device is missing.
	ErrEngineNotAvailable = errors.New("speech engine is not available")
	// ErrNotSpeaking is returned by engines asked to pause or resume with
	// nothing in flight.
	ErrNotSpeaking = errors.New("nothing is being spoken")
	// ErrControllerClosed is returned after Close.
	ErrControllerClosed = errors.New("playback controller is closed")
	// ErrInvalidConfig indicates a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// DecodeError reports malformed UTF-8 in ingested bytes.
type DecodeError struct {
	Origin string // File name, empty for in-memory input
	Offset int    // Byte offset of the first invalid sequence
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Origin == "" {
		return fmt.Sprintf("%s at byte %d", ErrDecode, e.Offset)
	}
	return fmt.Sprintf("%s: %s at byte %d", e.Origin, ErrDecode, e.Offset)
}

// Unwrap returns the sentinel so errors.Is(err, ErrDecode) works.
func (e *DecodeError) Unwrap() error {
	return ErrDecode
}

// IOError reports a failure reading the byte source.
type IOError struct {
	Origin string
	Err    error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrIO, e.Origin, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// EngineError wraps a failure reported by the speech engine for a session.
type EngineError struct {
	Engine  string
	Session uuid.UUID
	Err     error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s engine failed", e.Engine)
	}
	return fmt.Sprintf("%s engine: %v", e.Engine, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *EngineError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEngine}
	}
	return []error{ErrEngine, e.Err}
}

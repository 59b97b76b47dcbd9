package tts

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Engine is the process-wide speech synthesis resource. Only one
// Controller should drive a given Engine.
//
// Speak returns as soon as the utterance is queued; progress is reported
// through sink. Implementations must call sink from their own goroutines,
// never from inside Speak or Cancel, and must not report events for an
// utterance after it has been cancelled.
type Engine interface {
	// Name returns the human-readable name of the engine.
	Name() string

	// Voices lists the voices the engine currently offers. The list may
	// grow after startup for engines that load voices lazily.
	Voices(ctx context.Context) ([]Voice, error)

	// Speak starts vocalizing u, reporting lifecycle events to sink.
	Speak(u Utterance, sink func(Event)) error

	// Pause suspends the utterance in flight.
	Pause() error

	// Resume continues a paused utterance.
	Resume() error

	// Cancel discards any queued or in-flight utterance.
	Cancel() error

	// Speaking returns true while an utterance is in flight (paused or not).
	Speaking() bool

	// Paused returns true while the utterance in flight is paused.
	Paused() bool
}

// VoiceLister is the part of Engine the catalog needs.
type VoiceLister interface {
	Voices(ctx context.Context) ([]Voice, error)
}

// VoiceWatcher is implemented by engines whose voice set can change at
// runtime. changed is called every time the engine notices a change; the
// method blocks until ctx is done.
type VoiceWatcher interface {
	WatchVoices(ctx context.Context, changed func()) error
}

// Voice is a synthesis voice discovered from the engine.
type Voice struct {
	Name     string // Display identifier, not guaranteed unique
	Language string // Language tag (e.g., "zh-CN")
	Handle   string // Engine specific reference (voice id, model path)
}

// String returns the voice as shown in lists.
func (v Voice) String() string {
	if v.Language == "" {
		return v.Name
	}
	return v.Name + " (" + v.Language + ")"
}

// Utterance is a single request to vocalize a text snapshot.
type Utterance struct {
	Session uuid.UUID
	Text    string
	Voice   *Voice // nil selects the engine default voice
	Rate    float64
	Pitch   float64
	Volume  float64
}

// EventKind tags engine lifecycle events.
type EventKind int

const (
	// EventStart is reported when the engine starts vocalizing.
	EventStart EventKind = iota
	// EventEnd is reported when the utterance completes normally.
	EventEnd
	// EventError is reported when the utterance fails.
	EventError
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a lifecycle report from the engine, tagged with the session the
// utterance was issued for.
type Event struct {
	Kind    EventKind
	Session uuid.UUID
	Err     error // Set for EventError
	At      time.Time
}

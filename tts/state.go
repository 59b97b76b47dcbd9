package tts

import "time"

// StateType represents the current state of the playback controller.
type StateType int

const (
	// StateIdle indicates nothing is being spoken.
	StateIdle StateType = iota
	// StateSpeaking indicates an utterance is in flight.
	StateSpeaking
	// StatePaused indicates the current utterance is paused.
	StatePaused
	// StateEnded is reported once when an utterance completes. The
	// controller is Idle again by the time observers see it.
	StateEnded
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Active returns true while a session is live.
func (s StateType) Active() bool {
	return s == StateSpeaking || s == StatePaused
}

// Status messages reported to observers.
const (
	MsgSpeaking   = "Speaking..."
	MsgPaused     = "Paused"
	MsgDone       = "Done"
	MsgStopped    = "Stopped"
	MsgError      = "Error occurred"
	MsgEmptyInput = "Please input text first"
	MsgFileLoaded = "File loaded successfully"
)

// Status is emitted to observers on every transition.
type Status struct {
	State   StateType
	Message string
	Err     error     // Set for warnings and engine errors
	At      time.Time // When the transition happened
}

// IsError returns true if the status carries a failure.
func (s Status) IsError() bool {
	return s.Err != nil
}

// transitions lists the moves the controller is allowed to make. Anything
// else is a programming error and is logged rather than applied.
var transitions = map[StateType][]StateType{
	StateIdle:     {StateSpeaking},
	StateSpeaking: {StateSpeaking, StatePaused, StateIdle, StateEnded},
	StatePaused:   {StateSpeaking, StateIdle, StateEnded},
	StateEnded:    {StateIdle},
}

// canTransition reports whether from -> to is a legal move.
func canTransition(from, to StateType) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Package mock provides a mock speech engine for testing and demos.
package mock

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/google/uuid"
)

// Operations recorded by the mock engine.
const (
	OpSpeak  = "speak"
	OpPause  = "pause"
	OpResume = "resume"
	OpCancel = "cancel"
)

// Call is a command the engine received.
type Call struct {
	Op        string
	Session   uuid.UUID     // Set for OpSpeak
	Utterance tts.Utterance // Set for OpSpeak
}

// Engine implements tts.Engine without producing any sound.
//
// By default utterances never finish on their own: tests drive the
// lifecycle with Emit. WithAutoComplete makes the engine finish each
// utterance after a simulated speaking time.
type Engine struct {
	mu sync.Mutex

	voices    []tts.Voice
	voicesErr error

	// Control for testing
	speakErr  error
	pauseErr  error
	resumeErr error
	cancelErr error

	calls    []Call
	lastSink func(tts.Event)

	current  *utterance
	auto     bool
	delay    time.Duration // Simulated time before the start event
	wordsPer float64       // Words per minute at rate 1.0
}

type utterance struct {
	u      tts.Utterance
	sink   func(tts.Event)
	paused bool
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures the mock engine.
type Option func(*Engine)

// WithVoices sets the voices reported by the engine.
func WithVoices(voices ...tts.Voice) Option {
	return func(e *Engine) {
		e.voices = voices
	}
}

// WithAutoComplete makes utterances start after delay and end after a
// speaking time estimated from the text and rate.
func WithAutoComplete(delay time.Duration) Option {
	return func(e *Engine) {
		e.auto = true
		e.delay = delay
	}
}

// DefaultVoices are reported when no voices are configured.
func DefaultVoices() []tts.Voice {
	return []tts.Voice{
		{Name: "Mock Voice 1", Language: "en-US", Handle: "mock-voice-1"},
		{Name: "Mock Voice 2", Language: "en-GB", Handle: "mock-voice-2"},
		{Name: "Mock Voice 3", Language: "zh-CN", Handle: "mock-voice-3"},
	}
}

// New creates a new mock engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		voices:   DefaultVoices(),
		delay:    50 * time.Millisecond,
		wordsPer: 150,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "mock"
}

// Voices returns the configured voices.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voicesErr != nil {
		return nil, e.voicesErr
	}
	out := make([]tts.Voice, len(e.voices))
	copy(out, e.voices)
	return out, nil
}

// Speak records the utterance and makes it current.
func (e *Engine) Speak(u tts.Utterance, sink func(tts.Event)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Op: OpSpeak, Session: u.Session, Utterance: u})
	e.lastSink = sink
	if e.speakErr != nil {
		return e.speakErr
	}

	ctx, cancel := context.WithCancel(context.Background())
	cur := &utterance{u: u, sink: sink, ctx: ctx, cancel: cancel}
	e.current = cur
	if e.auto {
		go e.run(cur)
	}
	return nil
}

// Pause marks the current utterance paused.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Op: OpPause})
	if e.pauseErr != nil {
		return e.pauseErr
	}
	if e.current == nil {
		return tts.ErrNotSpeaking
	}
	e.current.paused = true
	return nil
}

// Resume continues the current utterance.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Op: OpResume})
	if e.resumeErr != nil {
		return e.resumeErr
	}
	if e.current == nil {
		return tts.ErrNotSpeaking
	}
	e.current.paused = false
	return nil
}

// Cancel discards the current utterance. No further events are reported
// for it.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, Call{Op: OpCancel})
	if e.current != nil {
		e.current.cancel()
		e.current = nil
	}
	return e.cancelErr
}

// Speaking returns true while an utterance is current.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Paused returns true while the current utterance is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && e.current.paused
}

// Test control methods

// Emit reports an event for the current utterance on the caller's
// goroutine. Terminal events clear the current utterance. It returns
// false if nothing is current.
func (e *Engine) Emit(kind tts.EventKind, err error) bool {
	e.mu.Lock()
	cur := e.current
	if cur != nil && kind != tts.EventStart {
		e.current = nil
	}
	e.mu.Unlock()

	if cur == nil {
		return false
	}
	cur.sink(tts.Event{Kind: kind, Session: cur.u.Session, Err: err, At: time.Now()})
	return true
}

// EmitFor reports an event tagged with an arbitrary session, as a tardy
// engine would after the session was superseded. The sink of the most
// recent Speak call is used.
func (e *Engine) EmitFor(session uuid.UUID, kind tts.EventKind, err error) bool {
	e.mu.Lock()
	sink := e.lastSink
	e.mu.Unlock()

	if sink == nil {
		return false
	}
	sink(tts.Event{Kind: kind, Session: session, Err: err, At: time.Now()})
	return true
}

// Calls returns the commands received so far.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Call, len(e.calls))
	copy(out, e.calls)
	return out
}

// Ops returns the operation names received so far.
func (e *Engine) Ops() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.Op
	}
	return out
}

// Count returns how many times op was received.
func (e *Engine) Count(op string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the recorded calls.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

// SetVoices replaces the voice list, as an engine that loads voices late
// would.
func (e *Engine) SetVoices(voices ...tts.Voice) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voices = voices
}

// SetVoicesError makes Voices fail with err.
func (e *Engine) SetVoicesError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voicesErr = err
}

// SetFailure makes Speak fail with err.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakErr = err
}

// SetPauseFailure makes Pause fail with err.
func (e *Engine) SetPauseFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseErr = err
}

// SetResumeFailure makes Resume fail with err.
func (e *Engine) SetResumeFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumeErr = err
}

// ClearFailure resets the engine to normal operation.
func (e *Engine) ClearFailure() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speakErr = nil
	e.pauseErr = nil
	e.resumeErr = nil
	e.cancelErr = nil
}

// EstimateDuration estimates speaking time for text at rate.
func (e *Engine) EstimateDuration(text string, rate float64) time.Duration {
	// Rough estimate: 5 characters per word
	words := float64(utf8.RuneCountInString(text)) / 5
	if words < 1 {
		words = 1
	}
	if rate <= 0 {
		rate = 1
	}
	seconds := words * 60.0 / (e.wordsPer * rate)
	return time.Duration(seconds * float64(time.Second))
}

// run simulates speaking cur, honoring pause and cancel.
func (e *Engine) run(cur *utterance) {
	select {
	case <-cur.ctx.Done():
		return
	case <-time.After(e.delay):
	}
	e.deliver(cur, tts.Event{Kind: tts.EventStart, Session: cur.u.Session})

	total := e.EstimateDuration(cur.u.Text, cur.u.Rate)
	var elapsed time.Duration

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()

	for elapsed < total {
		select {
		case <-cur.ctx.Done():
			return
		case now := <-ticker.C:
			e.mu.Lock()
			paused := cur.paused
			e.mu.Unlock()
			if !paused {
				elapsed += now.Sub(last)
			}
			last = now
		}
	}

	e.mu.Lock()
	if e.current == cur {
		e.current = nil
	}
	e.mu.Unlock()
	e.deliver(cur, tts.Event{Kind: tts.EventEnd, Session: cur.u.Session})
}

// deliver calls the sink unless the utterance was cancelled. The engine
// lock is not held while the sink runs.
func (e *Engine) deliver(cur *utterance, ev tts.Event) {
	if cur.ctx.Err() != nil {
		return
	}
	ev.At = time.Now()
	cur.sink(ev)
}

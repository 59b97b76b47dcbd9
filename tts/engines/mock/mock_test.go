package mock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/google/uuid"
)

// eventLog collects events delivered to a sink.
type eventLog struct {
	mu     sync.Mutex
	events []tts.Event
	ch     chan tts.Event
}

func newEventLog() *eventLog {
	return &eventLog{ch: make(chan tts.Event, 16)}
}

func (l *eventLog) sink(ev tts.Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	l.ch <- ev
}

func (l *eventLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *eventLog) wait(t *testing.T, kind tts.EventKind) tts.Event {
	t.Helper()
	select {
	case ev := <-l.ch:
		if ev.Kind != kind {
			t.Fatalf("Expected %s event, got %s", kind, ev.Kind)
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatalf("Timed out waiting for %s event", kind)
	}
	return tts.Event{}
}

// TestNewMockEngine tests mock engine creation.
func TestNewMockEngine(t *testing.T) {
	engine := New()
	if engine.Name() != "mock" {
		t.Errorf("Expected name mock, got %q", engine.Name())
	}
	if engine.Speaking() || engine.Paused() {
		t.Error("Expected idle engine")
	}

	voices, err := engine.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 3 {
		t.Errorf("Expected 3 default voices, got %d", len(voices))
	}
}

// TestVoicesOptions tests configured voices and failures.
func TestVoicesOptions(t *testing.T) {
	engine := New(WithVoices(tts.Voice{Name: "Only", Language: "de-DE"}))
	voices, _ := engine.Voices(context.Background())
	if len(voices) != 1 || voices[0].Name != "Only" {
		t.Errorf("Unexpected voices: %v", voices)
	}

	engine.SetVoicesError(errors.New("no voices"))
	if _, err := engine.Voices(context.Background()); err == nil {
		t.Error("Expected voices error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Voices(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestSpeakRecordsCalls tests command recording.
func TestSpeakRecordsCalls(t *testing.T) {
	engine := New()
	u := tts.Utterance{Session: uuid.New(), Text: "hello", Rate: 1, Pitch: 1, Volume: 1}

	if err := engine.Speak(u, func(tts.Event) {}); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if !engine.Speaking() {
		t.Error("Expected engine to be speaking")
	}
	_ = engine.Pause()
	if !engine.Paused() {
		t.Error("Expected engine to be paused")
	}
	_ = engine.Resume()
	_ = engine.Cancel()

	want := []string{OpSpeak, OpPause, OpResume, OpCancel}
	got := engine.Ops()
	if len(got) != len(want) {
		t.Fatalf("Expected ops %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Op %d = %s, want %s", i, got[i], want[i])
		}
	}
	if engine.Calls()[0].Utterance.Text != "hello" {
		t.Error("Expected utterance recorded")
	}
	if engine.Speaking() {
		t.Error("Expected cancel to clear the utterance")
	}

	engine.Reset()
	if len(engine.Calls()) != 0 {
		t.Error("Expected Reset to clear calls")
	}
}

// TestPauseWithoutUtterance tests pausing an idle engine.
func TestPauseWithoutUtterance(t *testing.T) {
	engine := New()
	if err := engine.Pause(); !errors.Is(err, tts.ErrNotSpeaking) {
		t.Errorf("Expected ErrNotSpeaking, got %v", err)
	}
	if err := engine.Resume(); !errors.Is(err, tts.ErrNotSpeaking) {
		t.Errorf("Expected ErrNotSpeaking, got %v", err)
	}
}

// TestFailureInjection tests configured failures.
func TestFailureInjection(t *testing.T) {
	engine := New()
	boom := errors.New("boom")

	engine.SetFailure(boom)
	if err := engine.Speak(tts.Utterance{Session: uuid.New()}, func(tts.Event) {}); !errors.Is(err, boom) {
		t.Errorf("Expected speak failure, got %v", err)
	}
	if engine.Speaking() {
		t.Error("Expected failed speak not to become current")
	}

	engine.ClearFailure()
	_ = engine.Speak(tts.Utterance{Session: uuid.New()}, func(tts.Event) {})
	engine.SetPauseFailure(boom)
	if err := engine.Pause(); !errors.Is(err, boom) {
		t.Errorf("Expected pause failure, got %v", err)
	}
}

// TestEmit tests manual event delivery.
func TestEmit(t *testing.T) {
	engine := New()
	log := newEventLog()
	session := uuid.New()

	if engine.Emit(tts.EventStart, nil) {
		t.Error("Expected Emit with nothing current to report false")
	}

	_ = engine.Speak(tts.Utterance{Session: session, Text: "hi"}, log.sink)
	if !engine.Emit(tts.EventStart, nil) {
		t.Fatal("Expected start to be delivered")
	}
	if !engine.Speaking() {
		t.Error("Expected start to keep the utterance current")
	}
	engine.Emit(tts.EventEnd, nil)
	if engine.Speaking() {
		t.Error("Expected end to clear the utterance")
	}

	start := log.wait(t, tts.EventStart)
	if start.Session != session {
		t.Error("Expected event tagged with the session")
	}
	log.wait(t, tts.EventEnd)

	other := uuid.New()
	engine.EmitFor(other, tts.EventEnd, nil)
	if ev := log.wait(t, tts.EventEnd); ev.Session != other {
		t.Error("Expected EmitFor to use the given session")
	}
}

// TestAutoComplete tests the self-completing mode.
func TestAutoComplete(t *testing.T) {
	engine := New(WithAutoComplete(time.Millisecond))
	log := newEventLog()

	_ = engine.Speak(tts.Utterance{Session: uuid.New(), Text: "Hi", Rate: 2}, log.sink)
	log.wait(t, tts.EventStart)
	log.wait(t, tts.EventEnd)

	if engine.Speaking() {
		t.Error("Expected engine idle after completion")
	}
}

// TestAutoCompleteCancel tests that a cancelled utterance reports nothing.
func TestAutoCompleteCancel(t *testing.T) {
	engine := New(WithAutoComplete(50 * time.Millisecond))
	log := newEventLog()

	_ = engine.Speak(tts.Utterance{Session: uuid.New(), Text: "a long sentence to speak", Rate: 1}, log.sink)
	_ = engine.Cancel()

	time.Sleep(150 * time.Millisecond)
	if n := log.len(); n != 0 {
		t.Errorf("Expected no events after cancel, got %d", n)
	}
}

// TestEstimateDuration tests duration estimation.
func TestEstimateDuration(t *testing.T) {
	engine := New()

	tests := []struct {
		name     string
		text     string
		rate     float64
		expected time.Duration
	}{
		{"short text minimum one word", "Hi", 1, 400 * time.Millisecond},
		{"ten words", "aaaaabbbbbcccccdddddeeeeefffffggggghhhhhiiiiijjjjj", 1, 4 * time.Second},
		{"double rate", "aaaaabbbbbcccccdddddeeeeefffffggggghhhhhiiiiijjjjj", 2, 2 * time.Second},
		{"zero rate treated as normal", "Hi", 0, 400 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.EstimateDuration(tt.text, tt.rate)
			diff := got - tt.expected
			if diff < 0 {
				diff = -diff
			}
			if diff > time.Millisecond {
				t.Errorf("EstimateDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

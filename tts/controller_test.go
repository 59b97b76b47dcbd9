package tts_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/engines/mock"
)

// statusRecorder collects statuses reported by a controller.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []tts.Status
}

func (r *statusRecorder) record(s tts.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.statuses))
	for i, s := range r.statuses {
		out[i] = s.Message
	}
	return out
}

func (r *statusRecorder) last() tts.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return tts.Status{}
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *statusRecorder) count(msg string) int {
	n := 0
	for _, m := range r.messages() {
		if m == msg {
			n++
		}
	}
	return n
}

func newTestController(t *testing.T, opts ...tts.Option) (*tts.Controller, *mock.Engine, *statusRecorder) {
	t.Helper()
	engine := mock.New()
	c := tts.NewController(engine, opts...)
	rec := &statusRecorder{}
	c.OnStatus(rec.record)
	t.Cleanup(func() { _ = c.Close() })
	return c, engine, rec
}

func equalOps(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// TestControllerCreation verifies the initial state.
func TestControllerCreation(t *testing.T) {
	c, engine, _ := newTestController(t)

	if c.State() != tts.StateIdle {
		t.Errorf("Expected initial state to be Idle, got %s", c.State())
	}
	if _, ok := c.Session(); ok {
		t.Error("Expected no session initially")
	}
	p := c.Parameters()
	if p.Rate != 1 || p.Pitch != 1 || p.Volume != 1 {
		t.Errorf("Unexpected default parameters: %+v", p)
	}
	if len(engine.Calls()) != 0 {
		t.Errorf("Expected no engine calls, got %v", engine.Ops())
	}
}

// TestStopWhenIdle verifies Stop is a no-op when nothing is playing.
func TestStopWhenIdle(t *testing.T) {
	c, engine, rec := newTestController(t)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	if n := len(engine.Calls()); n != 0 {
		t.Errorf("Expected no engine command, got %v", engine.Ops())
	}
	if n := len(rec.messages()); n != 0 {
		t.Errorf("Expected no status, got %v", rec.messages())
	}
}

// TestPauseWhenIdle verifies Pause is a no-op when nothing is playing.
func TestPauseWhenIdle(t *testing.T) {
	c, engine, _ := newTestController(t)

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	if n := len(engine.Calls()); n != 0 {
		t.Errorf("Expected no engine command, got %v", engine.Ops())
	}
}

// TestPlayEmptyText verifies the empty input warning.
func TestPlayEmptyText(t *testing.T) {
	c, engine, rec := newTestController(t)

	err := c.Play()
	if !errors.Is(err, tts.ErrEmptyInput) {
		t.Fatalf("Expected ErrEmptyInput, got %v", err)
	}
	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	if got := rec.last().Message; got != "Please input text first" {
		t.Errorf("Expected empty input status, got %q", got)
	}
	if n := len(engine.Calls()); n != 0 {
		t.Errorf("Expected no engine command, got %v", engine.Ops())
	}
}

// TestPlayStartsSession verifies a play request snapshots text and starts
// the engine.
func TestPlayStartsSession(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if c.State() != tts.StateSpeaking {
		t.Errorf("Expected Speaking, got %s", c.State())
	}

	s, ok := c.Session()
	if !ok {
		t.Fatal("Expected a live session")
	}
	if s.Text != "Hello" {
		t.Errorf("Expected session text Hello, got %q", s.Text)
	}

	calls := engine.Calls()
	if len(calls) != 1 || calls[0].Op != mock.OpSpeak {
		t.Fatalf("Expected a single speak, got %v", engine.Ops())
	}
	if calls[0].Session != s.ID {
		t.Error("Utterance not tagged with the session ID")
	}
	if got := rec.last().Message; got != "Speaking..." {
		t.Errorf("Expected Speaking... status, got %q", got)
	}
}

// TestPlayPausePlayResumes verifies play after pause resumes the same
// session.
func TestPlayPausePlayResumes(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	first, _ := c.Session()

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if c.State() != tts.StatePaused {
		t.Errorf("Expected Paused, got %s", c.State())
	}
	if got := rec.last().Message; got != "Paused" {
		t.Errorf("Expected Paused status, got %q", got)
	}

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if c.State() != tts.StateSpeaking {
		t.Errorf("Expected Speaking, got %s", c.State())
	}

	second, _ := c.Session()
	if first.ID != second.ID {
		t.Error("Expected resume to keep the session")
	}

	want := []string{mock.OpSpeak, mock.OpPause, mock.OpResume}
	if got := engine.Ops(); !equalOps(got, want) {
		t.Errorf("Expected ops %v, got %v", want, got)
	}
}

// TestPauseToggles verifies a second pause resumes.
func TestPauseToggles(t *testing.T) {
	c, engine, _ := newTestController(t)
	c.SetText("Hello")

	_ = c.Play()
	_ = c.Pause()
	_ = c.Pause()

	if c.State() != tts.StateSpeaking {
		t.Errorf("Expected Speaking, got %s", c.State())
	}
	want := []string{mock.OpSpeak, mock.OpPause, mock.OpResume}
	if got := engine.Ops(); !equalOps(got, want) {
		t.Errorf("Expected ops %v, got %v", want, got)
	}
}

// TestPauseFailureReported verifies a failed pause or resume is reported
// as a status and leaves the state alone.
func TestPauseFailureReported(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")
	_ = c.Play()

	boom := errors.New("boom")
	engine.SetPauseFailure(boom)
	before := len(rec.messages())

	err := c.Pause()
	if !errors.Is(err, boom) {
		t.Fatalf("Expected pause error, got %v", err)
	}
	if c.State() != tts.StateSpeaking {
		t.Errorf("Expected Speaking, got %s", c.State())
	}
	if len(rec.messages()) != before+1 {
		t.Fatalf("Expected one new status, got %v", rec.messages()[before:])
	}
	last := rec.last()
	if last.Message != tts.MsgError || !errors.Is(last.Err, boom) || last.State != tts.StateSpeaking {
		t.Errorf("Unexpected status %+v", last)
	}
	var engineErr *tts.EngineError
	if !errors.As(last.Err, &engineErr) || engineErr.Engine != "mock" {
		t.Errorf("Expected an EngineError, got %v", last.Err)
	}
}

// TestResumeFailureReported verifies a failed resume keeps the session
// paused.
func TestResumeFailureReported(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")
	_ = c.Play()
	_ = c.Pause()

	engine.SetResumeFailure(errors.New("stuck"))
	if err := c.Pause(); err == nil {
		t.Fatal("Expected resume error")
	}
	if c.State() != tts.StatePaused {
		t.Errorf("Expected Paused, got %s", c.State())
	}
	if last := rec.last(); last.Message != tts.MsgError || last.State != tts.StatePaused {
		t.Errorf("Unexpected status %+v", last)
	}
}

// TestEngineEndReportsDone verifies normal completion.
func TestEngineEndReportsDone(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	engine.Emit(tts.EventStart, nil)
	if s, _ := c.Session(); !s.Started {
		t.Error("Expected start event to mark the session started")
	}
	engine.Emit(tts.EventEnd, nil)

	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle after end, got %s", c.State())
	}
	if _, ok := c.Session(); ok {
		t.Error("Expected session to be discarded")
	}

	last := rec.last()
	if last.Message != "Done" || last.State != tts.StateEnded {
		t.Errorf("Expected Done/ended status, got %q/%s", last.Message, last.State)
	}
}

// TestPlayTwiceSupersedes verifies the second play cancels the first
// session and tardy events for it are dropped.
func TestPlayTwiceSupersedes(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")

	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	first, _ := c.Session()

	if err := c.Play(); err != nil {
		t.Fatalf("Second play failed: %v", err)
	}
	second, _ := c.Session()

	if first.ID == second.ID {
		t.Fatal("Expected a new session")
	}
	want := []string{mock.OpSpeak, mock.OpCancel, mock.OpSpeak}
	if got := engine.Ops(); !equalOps(got, want) {
		t.Errorf("Expected ops %v, got %v", want, got)
	}

	// A late end for the cancelled utterance must not be observed.
	engine.EmitFor(first.ID, tts.EventEnd, nil)
	if c.State() != tts.StateSpeaking {
		t.Errorf("Expected Speaking, got %s", c.State())
	}
	if n := rec.count("Done"); n != 0 {
		t.Errorf("Expected no Done status, got %d", n)
	}
	for _, m := range rec.messages() {
		if m == "Error occurred" {
			t.Error("Expected no error status")
		}
	}

	engine.Emit(tts.EventEnd, nil)
	if n := rec.count("Done"); n != 1 {
		t.Errorf("Expected exactly one Done status, got %d", n)
	}
}

// TestEngineErrorReturnsToIdle verifies engine failures discard the
// session.
func TestEngineErrorReturnsToIdle(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")

	_ = c.Play()
	boom := errors.New("audio device lost")
	engine.Emit(tts.EventError, boom)

	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	last := rec.last()
	if last.Message != "Error occurred" {
		t.Errorf("Expected error status, got %q", last.Message)
	}
	if !errors.Is(last.Err, tts.ErrEngine) || !errors.Is(last.Err, boom) {
		t.Errorf("Expected engine error wrapping cause, got %v", last.Err)
	}
	var engErr *tts.EngineError
	if !errors.As(last.Err, &engErr) || engErr.Engine != "mock" {
		t.Errorf("Expected *EngineError from mock, got %#v", last.Err)
	}
}

// TestSpeakFailure verifies a speak command that fails to start.
func TestSpeakFailure(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")
	engine.SetFailure(errors.New("no audio"))

	err := c.Play()
	if !errors.Is(err, tts.ErrEngine) {
		t.Fatalf("Expected engine error, got %v", err)
	}
	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	if got := rec.last().Message; got != "Error occurred" {
		t.Errorf("Expected error status, got %q", got)
	}

	// No retry: the next play is an explicit new attempt.
	engine.ClearFailure()
	if err := c.Play(); err != nil {
		t.Fatalf("Play after failure failed: %v", err)
	}
	if c.State() != tts.StateSpeaking {
		t.Errorf("Expected Speaking, got %s", c.State())
	}
}

// TestStopCancels verifies stop discards the session.
func TestStopCancels(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")

	_ = c.Play()
	s, _ := c.Session()
	_ = c.Pause()

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	if got := rec.last().Message; got != "Stopped" {
		t.Errorf("Expected Stopped status, got %q", got)
	}

	want := []string{mock.OpSpeak, mock.OpPause, mock.OpCancel}
	if got := engine.Ops(); !equalOps(got, want) {
		t.Errorf("Expected ops %v, got %v", want, got)
	}

	engine.EmitFor(s.ID, tts.EventEnd, nil)
	if n := rec.count("Done"); n != 0 {
		t.Error("Expected end for stopped session to be dropped")
	}

	// Stop again is a no-op.
	_ = c.Stop()
	if n := engine.Count(mock.OpCancel); n != 1 {
		t.Errorf("Expected one cancel, got %d", n)
	}
}

// TestParametersClamped verifies out of range values are clamped before
// being applied.
func TestParametersClamped(t *testing.T) {
	c, engine, _ := newTestController(t)

	if got := c.SetParameter(tts.FieldRate, 5.0); got != 2.0 {
		t.Errorf("Expected rate 2.0, got %v", got)
	}
	if got := c.SetParameter(tts.FieldVolume, -1); got != 0.0 {
		t.Errorf("Expected volume 0.0, got %v", got)
	}
	if got := c.SetParameter(tts.FieldPitch, 0.1); got != 0.5 {
		t.Errorf("Expected pitch 0.5, got %v", got)
	}

	c.SetText("Hello")
	_ = c.Play()

	u := engine.Calls()[0].Utterance
	if u.Rate != 2.0 || u.Volume != 0.0 || u.Pitch != 0.5 {
		t.Errorf("Unexpected utterance parameters: rate=%v pitch=%v volume=%v", u.Rate, u.Pitch, u.Volume)
	}
}

// TestWithParametersClamps verifies initial parameters are clamped.
func TestWithParametersClamps(t *testing.T) {
	c, _, _ := newTestController(t, tts.WithParameters(tts.Parameters{Rate: 9, Pitch: -3, Volume: 4}))

	p := c.Parameters()
	if p.Rate != 2 || p.Pitch != 0.5 || p.Volume != 1 {
		t.Errorf("Unexpected parameters: %+v", p)
	}
}

// TestTextSnapshot verifies edits during speech do not affect the
// utterance in flight.
func TestTextSnapshot(t *testing.T) {
	c, engine, _ := newTestController(t)
	c.SetText("Hello")
	_ = c.Play()

	c.SetText("Goodbye")

	s, _ := c.Session()
	if s.Text != "Hello" {
		t.Errorf("Expected session text Hello, got %q", s.Text)
	}
	if got := engine.Calls()[0].Utterance.Text; got != "Hello" {
		t.Errorf("Expected utterance text Hello, got %q", got)
	}
	if got := c.Text().Content(); got != "Goodbye" {
		t.Errorf("Expected source text Goodbye, got %q", got)
	}
}

// TestVoiceResolution verifies the catalog default and fallback to the
// engine default voice.
func TestVoiceResolution(t *testing.T) {
	c, engine, _ := newTestController(t)

	if err := c.Catalog().Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := c.Parameters().Voice; got != "Mock Voice 3" {
		t.Errorf("Expected zh default voice, got %q", got)
	}

	c.SetText("你好")
	_ = c.Play()
	u := engine.Calls()[0].Utterance
	if u.Voice == nil || u.Voice.Name != "Mock Voice 3" {
		t.Errorf("Expected Mock Voice 3, got %+v", u.Voice)
	}

	_ = c.Stop()
	c.SetVoice("Nonexistent")
	_ = c.Play()
	calls := engine.Calls()
	if v := calls[len(calls)-1].Utterance.Voice; v != nil {
		t.Errorf("Expected engine default voice, got %+v", v)
	}
	if c.State() != tts.StateSpeaking {
		t.Errorf("Expected missing voice not to be an error, got %s", c.State())
	}
}

// TestCatalogRefreshKeepsExplicitVoice verifies a chosen voice survives
// a refresh.
func TestCatalogRefreshKeepsExplicitVoice(t *testing.T) {
	c, engine, _ := newTestController(t)
	c.SetVoice("Mock Voice 1")

	_ = c.Catalog().Refresh(context.Background())
	if got := c.Parameters().Voice; got != "Mock Voice 1" {
		t.Errorf("Expected explicit voice kept, got %q", got)
	}

	engine.SetVoices(tts.Voice{Name: "Other", Language: "fr-FR"})
	_ = c.Catalog().Refresh(context.Background())
	if got := c.Parameters().Voice; got != "Mock Voice 1" {
		t.Errorf("Expected explicit voice kept after it vanished, got %q", got)
	}

	c.SetVoice("")
	if got := c.Parameters().Voice; got != "Other" {
		t.Errorf("Expected default voice Other, got %q", got)
	}
}

// TestLoadBytes verifies decoding and the file loaded status.
func TestLoadBytes(t *testing.T) {
	c, _, rec := newTestController(t)
	c.SetText("keep me")

	err := c.LoadBytes("bad.txt", []byte{'o', 'k', 0xff, 0xfe})
	var decErr *tts.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Expected DecodeError, got %v", err)
	}
	if decErr.Offset != 2 {
		t.Errorf("Expected offset 2, got %d", decErr.Offset)
	}
	if got := c.Text().Content(); got != "keep me" {
		t.Errorf("Expected prior text retained, got %q", got)
	}

	if err := c.LoadBytes("good.txt", []byte("你好, world")); err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if got := rec.last().Message; got != "File loaded successfully" {
		t.Errorf("Expected file loaded status, got %q", got)
	}
	if got := c.Text().Origin(); got != "good.txt" {
		t.Errorf("Expected origin good.txt, got %q", got)
	}
}

// TestLoadFileMissing verifies read failures surface as IOError.
func TestLoadFileMissing(t *testing.T) {
	c, _, _ := newTestController(t)

	err := c.LoadFile(t.TempDir() + "/missing.txt")
	if !errors.Is(err, tts.ErrIO) {
		t.Fatalf("Expected ErrIO, got %v", err)
	}
}

// TestObserverReentrancy verifies observers may call back into the
// controller.
func TestObserverReentrancy(t *testing.T) {
	c, engine, rec := newTestController(t)
	c.SetText("Hello")

	var once sync.Once
	c.OnStatus(func(s tts.Status) {
		if s.State == tts.StateSpeaking {
			once.Do(func() { _ = c.Stop() })
		}
	})

	done := make(chan struct{})
	go func() {
		_ = c.Play()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Play deadlocked with a reentrant observer")
	}

	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	want := []string{"Speaking...", "Stopped"}
	if got := rec.messages(); !equalOps(got, want) {
		t.Errorf("Expected statuses %v, got %v", want, got)
	}
	if n := engine.Count(mock.OpCancel); n != 1 {
		t.Errorf("Expected one cancel, got %d", n)
	}
}

// TestUnsubscribe verifies observers can be removed.
func TestUnsubscribe(t *testing.T) {
	c, _, _ := newTestController(t)
	rec := &statusRecorder{}
	unsubscribe := c.OnStatus(rec.record)
	unsubscribe()

	_ = c.Play()
	if n := len(rec.messages()); n != 0 {
		t.Errorf("Expected no statuses after unsubscribe, got %v", rec.messages())
	}
}

// TestAutoCompleteEngine runs a full session against the self-completing
// mock engine.
func TestAutoCompleteEngine(t *testing.T) {
	engine := mock.New(mock.WithAutoComplete(time.Millisecond))
	c := tts.NewController(engine)
	defer c.Close() //nolint:errcheck

	done := make(chan tts.Status, 4)
	c.OnStatus(func(s tts.Status) {
		if s.State == tts.StateEnded {
			done <- s
		}
	})

	c.SetText("Hi")
	c.SetParameter(tts.FieldRate, 2)
	if err := c.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	select {
	case s := <-done:
		if s.Message != "Done" {
			t.Errorf("Expected Done, got %q", s.Message)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Timed out waiting for completion")
	}
	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
}

// TestClose verifies Close cancels activity and rejects further play.
func TestClose(t *testing.T) {
	c, engine, _ := newTestController(t)
	c.SetText("Hello")
	_ = c.Play()

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if c.State() != tts.StateIdle {
		t.Errorf("Expected Idle, got %s", c.State())
	}
	if n := engine.Count(mock.OpCancel); n != 1 {
		t.Errorf("Expected one cancel, got %d", n)
	}
	if err := c.Play(); !errors.Is(err, tts.ErrControllerClosed) {
		t.Errorf("Expected ErrControllerClosed, got %v", err)
	}
}

package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/engines/mock"
)

func newTestModel(t *testing.T, cfg Config) (model, *tts.Controller, *mock.Engine) {
	t.Helper()
	eng := mock.New()
	ctrl := tts.NewController(eng)
	ctrl.SetText("hello world")
	m := newModel(cfg, ctrl)
	t.Cleanup(func() {
		m.shutdown()
		_ = ctrl.Close()
	})
	return m, ctrl, eng
}

func press(t *testing.T, m model, keys ...tea.KeyMsg) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(model)
	}
	return m
}

// drain applies every queued status to m.
func drain(m model) model {
	for {
		select {
		case s := <-m.statuses:
			next, _ := m.Update(statusMsg(s))
			m = next.(model)
		default:
			return m
		}
	}
}

var (
	ctrlP   = tea.KeyMsg{Type: tea.KeyCtrlP}
	ctrlS   = tea.KeyMsg{Type: tea.KeyCtrlS}
	ctrlX   = tea.KeyMsg{Type: tea.KeyCtrlX}
	ctrlV   = tea.KeyMsg{Type: tea.KeyCtrlV}
	altV    = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'v'}, Alt: true}
	altUp   = tea.KeyMsg{Type: tea.KeyUp, Alt: true}
	altDown = tea.KeyMsg{Type: tea.KeyDown, Alt: true}
	altLeft = tea.KeyMsg{Type: tea.KeyLeft, Alt: true}
	ctrlU   = tea.KeyMsg{Type: tea.KeyCtrlU}
	ctrlD   = tea.KeyMsg{Type: tea.KeyCtrlD}
	ctrlL   = tea.KeyMsg{Type: tea.KeyCtrlL}
	esc     = tea.KeyMsg{Type: tea.KeyEscape}
)

// TestPlaybackKeys tests the play, pause and stop controls.
func TestPlaybackKeys(t *testing.T) {
	m, ctrl, eng := newTestModel(t, Config{})

	m = drain(press(t, m, ctrlP))
	if ctrl.State() != tts.StateSpeaking {
		t.Fatalf("Expected speaking, got %s", ctrl.State())
	}
	if m.status.Message != tts.MsgSpeaking {
		t.Errorf("Expected status %q, got %q", tts.MsgSpeaking, m.status.Message)
	}

	m = drain(press(t, m, ctrlS))
	if ctrl.State() != tts.StatePaused || m.status.Message != tts.MsgPaused {
		t.Errorf("Expected paused, got %s / %q", ctrl.State(), m.status.Message)
	}

	m = drain(press(t, m, ctrlS))
	if ctrl.State() != tts.StateSpeaking {
		t.Errorf("Expected resumed, got %s", ctrl.State())
	}

	m = drain(press(t, m, ctrlX))
	if ctrl.State() != tts.StateIdle || m.status.Message != tts.MsgStopped {
		t.Errorf("Expected stopped, got %s / %q", ctrl.State(), m.status.Message)
	}

	expected := []string{mock.OpSpeak, mock.OpPause, mock.OpResume, mock.OpCancel}
	if got := eng.Ops(); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected ops %v, got %v", expected, got)
	}
}

// TestPlayEmptyText tests the empty input warning.
func TestPlayEmptyText(t *testing.T) {
	m, ctrl, eng := newTestModel(t, Config{})

	m = drain(press(t, m, ctrlL, ctrlP))
	if ctrl.Text().Content() != "" {
		t.Error("Expected text cleared")
	}
	if m.status.Message != tts.MsgEmptyInput || !m.status.IsError() {
		t.Errorf("Expected empty input warning, got %+v", m.status)
	}
	if eng.Count(mock.OpSpeak) != 0 {
		t.Error("Expected no speak")
	}
}

// TestTypingUpdatesText tests that edits reach the text source.
func TestTypingUpdatesText(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Config{})

	m = press(t, m, ctrlL, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("你好 abc")})
	if got := ctrl.Text().Content(); got != "你好 abc" {
		t.Errorf("Expected typed text, got %q", got)
	}
	if !strings.Contains(m.headerView(), "6 chars") {
		t.Errorf("Expected char count in header, got %q", m.headerView())
	}
	if !strings.Contains(m.headerView(), "untitled") {
		t.Errorf("Expected untitled origin, got %q", m.headerView())
	}
}

// TestParameterKeys tests rate, pitch and volume adjustment.
func TestParameterKeys(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Config{})

	m = press(t, m, altUp, altUp, altUp)
	if p := ctrl.Parameters(); p.Rate != 1.3 {
		t.Errorf("Expected rate 1.3, got %v", p.Rate)
	}
	if m.status.Message != "Rate 1.3x" {
		t.Errorf("Unexpected notice %q", m.status.Message)
	}

	for i := 0; i < 20; i++ {
		m = press(t, m, altDown)
	}
	if p := ctrl.Parameters(); p.Rate != tts.MinRate {
		t.Errorf("Expected rate clamped to %v, got %v", tts.MinRate, p.Rate)
	}

	m = press(t, m, altLeft)
	if p := ctrl.Parameters(); p.Pitch != 0.9 {
		t.Errorf("Expected pitch 0.9, got %v", p.Pitch)
	}

	m = press(t, m, ctrlU)
	if p := ctrl.Parameters(); p.Volume != 1 {
		t.Errorf("Expected volume to stay at 1, got %v", p.Volume)
	}
	m = press(t, m, ctrlD, ctrlD)
	if p := ctrl.Parameters(); p.Volume != 0.8 {
		t.Errorf("Expected volume 0.8, got %v", p.Volume)
	}
	if m.status.Message != "Volume 80%" {
		t.Errorf("Unexpected notice %q", m.status.Message)
	}
}

// TestVoiceKeys tests cycling through the catalog.
func TestVoiceKeys(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Config{})

	m = press(t, m, ctrlV)
	if !strings.Contains(m.status.Message, "No voices") {
		t.Errorf("Expected no voices notice, got %q", m.status.Message)
	}

	if err := ctrl.Catalog().Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if v := ctrl.Parameters().Voice; v != "Mock Voice 3" {
		t.Fatalf("Expected zh default voice, got %q", v)
	}

	m = press(t, m, ctrlV)
	if v := ctrl.Parameters().Voice; v != "Mock Voice 1" {
		t.Errorf("Expected wrap to first voice, got %q", v)
	}
	m = press(t, m, altV)
	if v := ctrl.Parameters().Voice; v != "Mock Voice 3" {
		t.Errorf("Expected previous voice, got %q", v)
	}
	if !strings.Contains(m.status.Message, "Mock Voice 3 (zh-CN)") {
		t.Errorf("Unexpected notice %q", m.status.Message)
	}
}

// TestVoicesReady tests the catalog refresh command.
func TestVoicesReady(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Config{})

	msg := refreshVoices(ctrl)()
	ready, ok := msg.(voicesReadyMsg)
	if !ok || ready.err != nil || ready.count != 3 {
		t.Fatalf("Unexpected refresh result %#v", msg)
	}
	next, _ := m.Update(ready)
	if next.(model).status.IsError() {
		t.Error("Expected no error status")
	}
}

// TestReload tests reloading the watched file.
func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, ctrl, _ := newTestModel(t, Config{Path: path, Watch: true})
	if m.watcher == nil {
		t.Fatal("Expected a watcher")
	}

	if err := os.WriteFile(path, []byte("second version"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.watchFile().(reloadMsg); !ok {
		t.Fatal("Expected a reload message")
	}

	next, cmd := m.Update(reloadMsg{})
	m = drain(next.(model))
	if cmd == nil {
		t.Error("Expected watching to continue")
	}
	if got := m.textarea.Value(); got != "second version" {
		t.Errorf("Expected reloaded text, got %q", got)
	}
	if ctrl.Text().Origin() != path {
		t.Errorf("Expected origin %q, got %q", path, ctrl.Text().Origin())
	}
	if m.status.Message != tts.MsgFileLoaded {
		t.Errorf("Expected loaded status, got %q", m.status.Message)
	}
	if !strings.Contains(m.headerView(), "notes.txt") {
		t.Errorf("Expected origin in header, got %q", m.headerView())
	}
}

// TestQuit tests that quitting stops playback.
func TestQuit(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Config{})
	m = press(t, m, ctrlP)

	next, cmd := m.Update(esc)
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if ctrl.State() != tts.StateIdle {
		t.Errorf("Expected idle after quit, got %s", ctrl.State())
	}
	if next.(model).unsubscribe != nil {
		t.Error("Expected status observer removed")
	}
}

// TestStatusText tests status line rendering.
func TestStatusText(t *testing.T) {
	tests := []struct {
		name     string
		status   tts.Status
		width    int
		expected string
	}{
		{name: "ready", status: tts.Status{}, expected: "■ Ready"},
		{name: "speaking", status: tts.Status{State: tts.StateSpeaking, Message: tts.MsgSpeaking}, expected: "▶ Speaking..."},
		{name: "paused", status: tts.Status{State: tts.StatePaused, Message: tts.MsgPaused}, expected: "⏸ Paused"},
		{name: "done", status: tts.Status{State: tts.StateEnded, Message: tts.MsgDone}, expected: "✓ Done"},
		{name: "error", status: tts.Status{Message: tts.MsgError, Err: tts.ErrEngine}, expected: "✗ Error occurred"},
		{name: "truncated", status: tts.Status{Message: "a very long message"}, width: 10, expected: "■ a very …"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusText(tt.status, tt.width); got != tt.expected {
				t.Errorf("statusText() = %q, want %q", got, tt.expected)
			}
		})
	}
}

// TestParamsText tests the parameter summary.
func TestParamsText(t *testing.T) {
	p := tts.DefaultParameters()
	if got := paramsText(p); got != "voice: engine default  rate: 1.0x  pitch: 1.0x  volume: 100%" {
		t.Errorf("Unexpected summary %q", got)
	}
	p.Voice = "Mock Voice 3"
	p.Volume = 0.25
	if got := paramsText(p); !strings.Contains(got, "voice: Mock Voice 3") || !strings.Contains(got, "volume: 25%") {
		t.Errorf("Unexpected summary %q", got)
	}
}

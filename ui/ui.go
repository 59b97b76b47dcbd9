// Package ui provides the interactive text to speech screen.
package ui

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
)

const (
	headerHeight    = 2
	statusBarHeight = 2

	rateStep   = 0.1
	pitchStep  = 0.1
	volumeStep = 0.1

	statusBuffer = 64
)

type (
	statusMsg      tts.Status
	reloadMsg      struct{}
	voicesReadyMsg struct {
		count int
		err   error
	}
)

type model struct {
	cfg  Config
	ctrl *tts.Controller

	keys     keyMap
	help     help.Model
	textarea textarea.Model
	spinner  spinner.Model

	status      tts.Status
	statuses    chan tts.Status
	unsubscribe func()
	watcher     *fsnotify.Watcher

	width  int
	height int
}

// NewProgram returns a new Tea program for ctrl.
func NewProgram(cfg Config, ctrl *tts.Controller) *tea.Program {
	log.Debug("starting readaloud ui", "alt_screen", cfg.AltScreen, "watch", cfg.Watch, "path", cfg.Path)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	if cfg.InputTTY {
		opts = append(opts, tea.WithInputTTY())
	}
	return tea.NewProgram(newModel(cfg, ctrl), opts...)
}

func newModel(cfg Config, ctrl *tts.Controller) model {
	ta := textarea.New()
	ta.Placeholder = "Type or paste text to read aloud..."
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.SetValue(ctrl.Text().Content())
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(mintGreen)

	m := model{
		cfg:      cfg,
		ctrl:     ctrl,
		keys:     newKeyMap(),
		help:     help.New(),
		textarea: ta,
		spinner:  sp,
		status:   tts.Status{State: ctrl.State()},
		statuses: make(chan tts.Status, statusBuffer),
	}

	ch := m.statuses
	m.unsubscribe = ctrl.OnStatus(func(s tts.Status) {
		select {
		case ch <- s:
		default:
			log.Warn("ui status dropped", "message", s.Message)
		}
	})

	if cfg.Watch && cfg.Path != "" {
		m.initWatcher()
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		waitForStatus(m.statuses),
		refreshVoices(m.ctrl),
	}
	if m.watcher != nil {
		cmds = append(cmds, m.watchFile)
	}
	return tea.Batch(cmds...)
}

func waitForStatus(ch <-chan tts.Status) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg(s)
	}
}

func refreshVoices(ctrl *tts.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := ctrl.Catalog().Refresh(ctx)
		return voicesReadyMsg{count: ctrl.Catalog().Len(), err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.setSize()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
		before := m.textarea.Value()
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		if after := m.textarea.Value(); after != before {
			m.ctrl.SetText(after)
		}
		return m, cmd

	case statusMsg:
		m.status = tts.Status(msg)
		return m, waitForStatus(m.statuses)

	case voicesReadyMsg:
		if msg.err != nil {
			log.Warn("unable to list voices", "error", msg.err)
			m.notice(fmt.Sprintf("No voices: %v", msg.err), msg.err)
		} else {
			log.Debug("voices loaded", "count", msg.count)
		}
		return m, nil

	case reloadMsg:
		if err := m.ctrl.LoadFile(m.cfg.Path); err == nil {
			m.textarea.SetValue(m.ctrl.Text().Content())
		}
		return m, m.watchFile

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey runs the playback controls. It reports false for keys that
// belong to the text area.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Play):
		if err := m.ctrl.Play(); err != nil {
			log.Debug("play", "error", err)
		}
	case key.Matches(msg, m.keys.Pause):
		if err := m.ctrl.Pause(); err != nil {
			log.Debug("pause", "error", err)
		}
	case key.Matches(msg, m.keys.Stop):
		if err := m.ctrl.Stop(); err != nil {
			log.Debug("stop", "error", err)
		}

	case key.Matches(msg, m.keys.NextVoice):
		m.cycleVoice(1)
	case key.Matches(msg, m.keys.PrevVoice):
		m.cycleVoice(-1)

	case key.Matches(msg, m.keys.Faster):
		m.adjust(tts.FieldRate, rateStep)
	case key.Matches(msg, m.keys.Slower):
		m.adjust(tts.FieldRate, -rateStep)
	case key.Matches(msg, m.keys.PitchUp):
		m.adjust(tts.FieldPitch, pitchStep)
	case key.Matches(msg, m.keys.PitchDown):
		m.adjust(tts.FieldPitch, -pitchStep)
	case key.Matches(msg, m.keys.Louder):
		m.adjust(tts.FieldVolume, volumeStep)
	case key.Matches(msg, m.keys.Quieter):
		m.adjust(tts.FieldVolume, -volumeStep)

	case key.Matches(msg, m.keys.Clear):
		m.textarea.Reset()
		m.ctrl.Text().Clear()

	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.setSize()

	default:
		return nil, false
	}
	return nil, true
}

// adjust changes a parameter for the next play.
func (m *model) adjust(field tts.Field, delta float64) {
	cur := m.ctrl.Parameters().Get(field)
	// Round to the step so repeated presses land on tidy values.
	next := math.Round((cur+delta)*10) / 10
	value := m.ctrl.SetParameter(field, next)
	m.notice(paramMessage(field, value), nil)
}

// cycleVoice selects the next or previous catalog voice.
func (m *model) cycleVoice(step int) {
	voices := m.ctrl.Catalog().List()
	if len(voices) == 0 {
		m.notice("No voices available, using the engine default", nil)
		return
	}

	cur := m.ctrl.Parameters().Voice
	idx := -1
	for i, v := range voices {
		if v.Name == cur {
			idx = i
			break
		}
	}
	n := len(voices)
	next := ((idx+step)%n + n) % n
	if idx == -1 && step < 0 {
		next = n - 1
	}

	m.ctrl.SetVoice(voices[next].Name)
	m.notice("Voice: "+voices[next].String(), nil)
}

// notice shows a local message in the status bar until the next status.
func (m *model) notice(text string, err error) {
	m.status = tts.Status{State: m.ctrl.State(), Message: text, Err: err, At: time.Now()}
}

func (m *model) shutdown() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.watcher != nil {
		_ = m.watcher.Close()
		m.watcher = nil
	}
	if err := m.ctrl.Stop(); err != nil {
		log.Debug("stop on quit", "error", err)
	}
}

func (m *model) setSize() {
	m.help.Width = m.width
	helpHeight := lipgloss.Height(m.helpView())
	m.textarea.SetWidth(m.width)
	m.textarea.SetHeight(max(1, m.height-headerHeight-statusBarHeight-helpHeight))
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.statusBarView())
	b.WriteString("\n")
	b.WriteString(paramsStyle.Render(paramsText(m.ctrl.Parameters())))
	b.WriteString(m.helpView())
	return b.String()
}

func (m model) headerView() string {
	origin := m.ctrl.Text().Origin()
	if origin == "" {
		origin = "untitled"
	} else {
		origin = filepath.Base(origin)
	}
	count := m.ctrl.Text().CharCount()
	note := fmt.Sprintf("%s · %s chars", origin, humanize.Comma(int64(count)))
	return logoStyle.Render("readaloud") + headerNoteStyle.Render(note)
}

func (m model) statusBarView() string {
	width := m.width
	if m.cfg.StatusWidth > 0 && (width == 0 || m.cfg.StatusWidth < width) {
		width = m.cfg.StatusWidth
	}
	return statusView(m.status, m.spinner.View(), width)
}

func (m model) helpView() string {
	return helpViewStyle.Render(m.help.View(m.keys))
}

// Package espeak drives the espeak-ng speech synthesizer as a subprocess.
package espeak

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/google/uuid"
)

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Engine speaks through espeak-ng. Each utterance is one process; pause
// and resume stop and continue that process.
type Engine struct {
	binary  string
	wpm     int
	command commandFunc

	mu  sync.Mutex
	cur *job
}

type job struct {
	session uuid.UUID
	cmd     *exec.Cmd
	ctx     context.Context
	cancel  context.CancelFunc
	sink    func(tts.Event)
	stderr  bytes.Buffer
	paused  bool
}

// New creates an espeak engine. If the configured binary is not on PATH,
// the classic "espeak" binary is tried.
func New(cfg tts.EspeakConfig) *Engine {
	binary := cfg.Binary
	if binary == "" {
		binary = "espeak-ng"
	}
	if _, err := exec.LookPath(binary); err != nil {
		if alt, altErr := exec.LookPath("espeak"); altErr == nil {
			log.Debug("using espeak instead of espeak-ng", "path", alt)
			binary = alt
		}
	}
	wpm := cfg.WordsPerMinute
	if wpm <= 0 {
		wpm = 175
	}
	return &Engine{
		binary:  binary,
		wpm:     wpm,
		command: exec.CommandContext,
	}
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "espeak"
}

// Available reports whether the binary can be found.
func (e *Engine) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Voices lists the voices reported by espeak-ng --voices.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	out, err := e.command(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, e.startError(err)
	}
	return parseVoices(out), nil
}

// Args returns the command line for u.
func (e *Engine) Args(u tts.Utterance) []string {
	var args []string
	if u.Voice != nil && u.Voice.Handle != "" {
		args = append(args, "-v", u.Voice.Handle)
	}
	wpm := int(math.Round(float64(e.wpm) * u.Rate))
	pitch := min(99, int(math.Round(50*u.Pitch)))
	amplitude := int(math.Round(100 * u.Volume))
	args = append(args,
		"-s", strconv.Itoa(wpm),
		"-p", strconv.Itoa(pitch),
		"-a", strconv.Itoa(amplitude),
		"--stdin",
	)
	return args
}

// Speak starts an espeak process for u and returns once it is running.
func (e *Engine) Speak(u tts.Utterance, sink func(tts.Event)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur != nil {
		e.stopLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{session: u.Session, ctx: ctx, cancel: cancel, sink: sink}
	j.cmd = e.command(ctx, e.binary, e.Args(u)...)
	j.cmd.Stdin = strings.NewReader(u.Text)
	j.cmd.Stderr = &j.stderr

	if err := j.cmd.Start(); err != nil {
		cancel()
		return e.startError(err)
	}
	log.Debug("espeak started", "pid", j.cmd.Process.Pid, "session", u.Session)

	e.cur = j
	go e.wait(j)
	return nil
}

// wait reports the lifecycle of j. Nothing is reported once j is canceled.
func (e *Engine) wait(j *job) {
	if j.ctx.Err() == nil {
		j.sink(tts.Event{Kind: tts.EventStart, Session: j.session, At: time.Now()})
	}

	err := j.cmd.Wait()

	e.mu.Lock()
	if e.cur == j {
		e.cur = nil
	}
	canceled := j.ctx.Err() != nil
	e.mu.Unlock()
	j.cancel()

	if canceled {
		return
	}
	if err != nil {
		msg := strings.TrimSpace(j.stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		j.sink(tts.Event{Kind: tts.EventError, Session: j.session, Err: err, At: time.Now()})
		return
	}
	j.sink(tts.Event{Kind: tts.EventEnd, Session: j.session, At: time.Now()})
}

// Pause stops the running process.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return tts.ErrNotSpeaking
	}
	if err := suspend(e.cur.cmd.Process); err != nil {
		return fmt.Errorf("unable to pause espeak: %w", err)
	}
	e.cur.paused = true
	return nil
}

// Resume continues the stopped process.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return tts.ErrNotSpeaking
	}
	if err := resume(e.cur.cmd.Process); err != nil {
		return fmt.Errorf("unable to resume espeak: %w", err)
	}
	e.cur.paused = false
	return nil
}

// Cancel kills the running process, if any.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

func (e *Engine) stopLocked() {
	if e.cur == nil {
		return
	}
	log.Debug("espeak canceled", "session", e.cur.session)
	e.cur.cancel()
	e.cur = nil
}

// Speaking returns true while a process is running.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil
}

// Paused returns true while the running process is stopped.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil && e.cur.paused
}

func (e *Engine) startError(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s: %v", tts.ErrEngineNotAvailable, e.binary, err)
	}
	return fmt.Errorf("espeak: %w", err)
}

// Package piper provides the Piper TTS engine integration.
//
// Piper renders an utterance to raw PCM in a fresh process per request.
// The PCM is cached by text, model and rate, then played through an
// audio.Output.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/internal/cache"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/google/uuid"
)

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Engine implements tts.Engine on top of the piper binary.
type Engine struct {
	binary    string
	voicesDir string
	format    audio.Format
	timeout   time.Duration
	cache     *cache.Manager

	command  commandFunc
	lookPath func(string) (string, error)

	outMu  sync.Mutex
	output audio.Output

	mu  sync.Mutex
	cur *job
}

type job struct {
	session uuid.UUID
	ctx     context.Context
	cancel  context.CancelFunc
	sink    func(tts.Event)
	pb      audio.Playback
	paused  bool
}

// Option configures the engine.
type Option func(*Engine)

// WithOutput plays audio through out instead of the system device.
func WithOutput(out audio.Output) Option {
	return func(e *Engine) {
		e.output = out
	}
}

// WithCache stores synthesized audio in c.
func WithCache(c *cache.Manager) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// New creates a piper engine. Nothing is started until the first Speak.
func New(cfg tts.PiperConfig, opts ...Option) *Engine {
	format := audio.DefaultFormat()
	if cfg.SampleRate > 0 {
		format.SampleRate = cfg.SampleRate
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}

	e := &Engine{
		binary:    binary,
		voicesDir: cfg.VoicesDir,
		format:    format,
		timeout:   timeout,
		command:   exec.CommandContext,
		lookPath:  exec.LookPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewCache creates the audio cache described by cfg, or nil when caching is
// disabled.
func NewCache(cfg tts.PiperConfig) (*cache.Manager, error) {
	if cfg.CacheDisabled {
		return nil, nil
	}
	cc := cache.DefaultConfig()
	cc.MemoryCapacity = int64(cfg.CacheMemoryMB) * 1024 * 1024
	cc.DiskCapacity = int64(cfg.CacheDiskMB) * 1024 * 1024
	cc.DiskPath = cfg.CacheDir
	return cache.NewManager(cc)
}

// Name returns the engine name.
func (e *Engine) Name() string {
	return "piper"
}

// Available reports whether the binary and at least one model exist.
func (e *Engine) Available() bool {
	if _, err := e.lookPath(e.binary); err != nil {
		return false
	}
	voices, err := scanVoices(e.voicesDir)
	return err == nil && len(voices) > 0
}

// Voices lists the models found in the voices directory.
func (e *Engine) Voices(ctx context.Context) ([]tts.Voice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scanVoices(e.voicesDir)
}

// WatchVoices reports changes to the voices directory.
func (e *Engine) WatchVoices(ctx context.Context, changed func()) error {
	return watchDir(ctx, e.voicesDir, changed)
}

// Args returns the command line used to synthesize with model at rate.
func (e *Engine) Args(model string, rate float64) []string {
	if rate <= 0 {
		rate = 1
	}
	return []string{
		"--model", model,
		"--length_scale", strconv.FormatFloat(1/rate, 'f', 3, 64),
		"--output-raw",
	}
}

// Speak checks that piper can run, then synthesizes and plays u in the
// background. Pitch is not supported by piper and is ignored.
func (e *Engine) Speak(u tts.Utterance, sink func(tts.Event)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	if _, err := e.lookPath(e.binary); err != nil {
		return fmt.Errorf("%w: %s: %v", tts.ErrEngineNotAvailable, e.binary, err)
	}
	model, err := e.resolveModel(u.Voice)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{session: u.Session, ctx: ctx, cancel: cancel, sink: sink}
	e.cur = j
	go e.run(j, u, model)
	return nil
}

// resolveModel returns the model for v, or the first model available.
func (e *Engine) resolveModel(v *tts.Voice) (string, error) {
	if v != nil && v.Handle != "" {
		if _, err := os.Stat(v.Handle); err == nil {
			return v.Handle, nil
		}
		log.Warn("piper model missing, using default", "model", v.Handle)
	}
	voices, err := scanVoices(e.voicesDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", tts.ErrEngineNotAvailable, err)
	}
	if len(voices) == 0 {
		return "", fmt.Errorf("%w: no piper models in %q", tts.ErrEngineNotAvailable, e.voicesDir)
	}
	return voices[0].Handle, nil
}

func (e *Engine) run(j *job, u tts.Utterance, model string) {
	pcm, err := e.synthesize(j.ctx, u.Text, model, u.Rate)
	if err != nil {
		e.finish(j, err)
		return
	}
	pcm = audio.ScaleVolume(pcm, u.Volume)

	out, err := e.audioOutput()
	if err != nil {
		e.finish(j, err)
		return
	}
	pb, err := out.Play(pcm)
	if err != nil {
		e.finish(j, fmt.Errorf("unable to play audio: %w", err))
		return
	}

	e.mu.Lock()
	if j.ctx.Err() != nil {
		e.mu.Unlock()
		_ = pb.Close()
		return
	}
	j.pb = pb
	if j.paused {
		pb.Pause()
	}
	e.mu.Unlock()

	j.sink(tts.Event{Kind: tts.EventStart, Session: j.session, At: time.Now()})

	select {
	case <-pb.Done():
	case <-j.ctx.Done():
		_ = pb.Close()
	}
	e.finish(j, nil)
}

// finish clears j and reports its outcome unless it was canceled.
func (e *Engine) finish(j *job, err error) {
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
		log.Error("piper synthesis failed", "session", j.session, "error", err)
		j.sink(tts.Event{Kind: tts.EventError, Session: j.session, Err: err, At: time.Now()})
		return
	}
	j.sink(tts.Event{Kind: tts.EventEnd, Session: j.session, At: time.Now()})
}

// synthesize returns PCM for text, from the cache when possible.
func (e *Engine) synthesize(ctx context.Context, text, model string, rate float64) ([]byte, error) {
	key := cache.Key(text, model, rate)
	if e.cache != nil {
		if pcm, ok := e.cache.Get(key); ok {
			log.Debug("piper cache hit", "key", key[:12])
			return pcm, nil
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := e.command(runCtx, e.binary, e.Args(model, rate)...)
	cmd.Stdin = strings.NewReader(text + "\n")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("piper timed out after %v", e.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("piper: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("piper: %w", err)
	}

	pcm := e.format.Trim(stdout.Bytes())
	if err := e.format.Validate(pcm); err != nil {
		return nil, fmt.Errorf("piper produced no audio: %w", err)
	}
	log.Debug("piper synthesized", "bytes", len(pcm), "audio", e.format.Duration(len(pcm)), "took", time.Since(start))

	if e.cache != nil {
		if err := e.cache.Put(key, pcm); err != nil {
			log.Warn("unable to cache audio", "error", err)
		}
	}
	return pcm, nil
}

func (e *Engine) audioOutput() (audio.Output, error) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	if e.output != nil {
		return e.output, nil
	}
	p, err := audio.NewPlayer(e.format)
	if err != nil {
		return nil, err
	}
	e.output = p
	return p, nil
}

// Pause pauses playback. A pause during synthesis takes effect once
// playback starts.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return tts.ErrNotSpeaking
	}
	e.cur.paused = true
	if e.cur.pb != nil {
		e.cur.pb.Pause()
	}
	return nil
}

// Resume continues playback.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return tts.ErrNotSpeaking
	}
	e.cur.paused = false
	if e.cur.pb != nil {
		e.cur.pb.Resume()
	}
	return nil
}

// Cancel stops synthesis and playback of the current utterance.
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
	e.cur.cancel()
	if e.cur.pb != nil {
		_ = e.cur.pb.Close()
	}
	e.cur = nil
}

// Speaking returns true from Speak until the utterance ends.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil
}

// Paused returns true while the current utterance is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil && e.cur.paused
}

// CacheStats returns the audio cache counters per level.
func (e *Engine) CacheStats() map[cache.Level]cache.Stats {
	if e.cache == nil {
		return nil
	}
	return e.cache.Stats()
}

// Close cancels playback and closes the cache.
func (e *Engine) Close() error {
	_ = e.Cancel()
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}

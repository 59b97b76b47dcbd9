package engines

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
)

// DefaultMaxFailures is how many failed utterances the primary engine is
// allowed before the fallback takes over.
const DefaultMaxFailures = 2

// FallbackEngine wraps a primary engine with automatic fallback to a
// secondary engine when the primary is missing or fails consistently.
type FallbackEngine struct {
	primary       tts.Engine
	fallback      tts.Engine
	failures      int
	maxFailures   int
	usingFallback bool
	staleVoices   bool   // callers may still hold primary voices
	changed       func() // voice change callback from WatchVoices
	mu            sync.Mutex
}

// NewFallbackEngine creates a new engine with automatic fallback capability.
func NewFallbackEngine(primary, fallback tts.Engine, maxFailures int) *FallbackEngine {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
	}
}

func (f *FallbackEngine) active() tts.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeLocked()
}

func (f *FallbackEngine) activeLocked() tts.Engine {
	if f.usingFallback {
		return f.fallback
	}
	return f.primary
}

func (f *FallbackEngine) switchLocked(reason error) {
	if f.usingFallback {
		return
	}
	f.usingFallback = true
	f.staleVoices = true
	log.Warn("switching to fallback engine", "primary", f.primary.Name(), "fallback", f.fallback.Name(), "reason", reason)
	if f.changed != nil {
		f.changed()
	}
}

// speakFallbackLocked speaks through the fallback. Until the voice list
// is read again, a requested voice came from the primary and is replaced
// by the fallback's default.
func (f *FallbackEngine) speakFallbackLocked(u tts.Utterance, sink func(tts.Event)) error {
	if f.staleVoices && u.Voice != nil {
		log.Debug("dropping primary voice for fallback engine", "voice", u.Voice.Name)
		u.Voice = nil
	}
	return f.fallback.Speak(u, sink)
}

// Name returns the name of the active engine.
func (f *FallbackEngine) Name() string {
	return f.active().Name()
}

// Voices returns voices from the active engine. A primary that reports no
// voices hands over to the fallback.
func (f *FallbackEngine) Voices(ctx context.Context) ([]tts.Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.usingFallback {
		voices, err := f.primary.Voices(ctx)
		if err == nil && len(voices) > 0 {
			return voices, nil
		}
		if err == nil {
			err = errors.New("no voices")
		}
		f.switchLocked(err)
	}
	voices, err := f.fallback.Voices(ctx)
	if err == nil {
		f.staleVoices = false
	}
	return voices, err
}

// WatchVoices watches the active engine for voice changes. A switch to
// the fallback is reported as a change too. Engines that cannot report
// changes block until ctx is done.
func (f *FallbackEngine) WatchVoices(ctx context.Context, changed func()) error {
	f.mu.Lock()
	f.changed = changed
	active := f.activeLocked()
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.changed = nil
		f.mu.Unlock()
	}()

	if w, ok := active.(tts.VoiceWatcher); ok {
		return w.WatchVoices(ctx, changed)
	}
	<-ctx.Done()
	return nil
}

// Speak speaks through the active engine, switching to the fallback when
// the primary cannot start or has failed too often.
func (f *FallbackEngine) Speak(u tts.Utterance, sink func(tts.Event)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		return f.speakFallbackLocked(u, sink)
	}

	err := f.primary.Speak(u, f.track(sink))
	if err == nil {
		return nil
	}

	f.failures++
	log.Warn("primary engine failed", "attempt", f.failures, "max", f.maxFailures, "error", err)
	if !errors.Is(err, tts.ErrEngineNotAvailable) && f.failures < f.maxFailures {
		return err
	}
	f.switchLocked(err)

	if ferr := f.speakFallbackLocked(u, sink); ferr != nil {
		return fmt.Errorf("both engines failed: %w", errors.Join(err, ferr))
	}
	return nil
}

// track counts primary failures reported through events and resets the
// counter on success.
func (f *FallbackEngine) track(sink func(tts.Event)) func(tts.Event) {
	return func(ev tts.Event) {
		f.mu.Lock()
		switch ev.Kind {
		case tts.EventError:
			f.failures++
			if f.failures >= f.maxFailures {
				f.switchLocked(ev.Err)
			}
		case tts.EventEnd:
			if f.failures > 0 {
				log.Info("primary engine recovered", "failures", f.failures)
				f.failures = 0
			}
		}
		f.mu.Unlock()
		sink(ev)
	}
}

// Pause pauses the active engine.
func (f *FallbackEngine) Pause() error {
	return f.active().Pause()
}

// Resume resumes the active engine.
func (f *FallbackEngine) Resume() error {
	return f.active().Resume()
}

// Cancel cancels both engines, so an utterance started before a switch is
// also stopped.
func (f *FallbackEngine) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return errors.Join(f.primary.Cancel(), f.fallback.Cancel())
}

// Speaking reports whether either engine is speaking.
func (f *FallbackEngine) Speaking() bool {
	return f.primary.Speaking() || f.fallback.Speaking()
}

// Paused reports whether the active engine is paused.
func (f *FallbackEngine) Paused() bool {
	return f.active().Paused()
}

// Close closes both engines.
func (f *FallbackEngine) Close() error {
	var errs []error
	for _, e := range []tts.Engine{f.primary, f.fallback} {
		if c, ok := e.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Reset attempts to reset to primary engine.
func (f *FallbackEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback && f.changed != nil {
		f.changed()
	}
	f.failures = 0
	f.usingFallback = false
	f.staleVoices = false
	log.Info("reset to primary engine")
}

// UsingFallback reports whether the fallback engine is active.
func (f *FallbackEngine) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Status returns the current engine status.
func (f *FallbackEngine) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		return fmt.Sprintf("Using fallback engine %s (primary failed %d times)", f.fallback.Name(), f.failures)
	}
	return fmt.Sprintf("Using primary engine %s (failures: %d/%d)", f.primary.Name(), f.failures, f.maxFailures)
}

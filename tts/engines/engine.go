// Package engines selects and combines the speech engines.
package engines

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/engines/espeak"
	"github.com/dgnsrekt/readaloud/tts/engines/mock"
	"github.com/dgnsrekt/readaloud/tts/engines/piper"
)

// New creates the engine named by cfg.Engine. "auto" prefers piper and
// falls back to espeak-ng. A piper without its binary or voice models is
// skipped outright.
func New(cfg tts.Config) (tts.Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case tts.EngineMock:
		return mock.New(mock.WithAutoComplete(cfg.Mock.StartDelay)), nil
	case tts.EngineEspeak:
		return espeak.New(cfg.Espeak), nil
	case tts.EnginePiper:
		return newPiper(cfg.Piper)
	case tts.EngineAuto, "":
		es := espeak.New(cfg.Espeak)
		if !es.Available() {
			log.Warn("espeak-ng not found, fallback speech will fail", "binary", cfg.Espeak.Binary)
		}
		p, err := newPiper(cfg.Piper)
		if err != nil {
			log.Warn("piper unavailable, using espeak", "error", err)
			return es, nil
		}
		if !p.Available() {
			log.Warn("piper binary or voice models missing, using espeak", "binary", cfg.Piper.Binary, "voices", cfg.Piper.VoicesDir)
			_ = p.Close()
			return es, nil
		}
		return NewFallbackEngine(p, es, DefaultMaxFailures), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", tts.ErrInvalidConfig, cfg.Engine)
	}
}

func newPiper(cfg tts.PiperConfig) (*piper.Engine, error) {
	c, err := piper.NewCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create audio cache: %w", err)
	}
	return piper.New(cfg, piper.WithCache(c)), nil
}

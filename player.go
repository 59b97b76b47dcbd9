package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/engines"
)

const voicesTimeout = 10 * time.Second

// player bundles an engine with the controller that drives it.
type player struct {
	engine tts.Engine
	ctrl   *tts.Controller
}

func newPlayer(cfg tts.Config) (*player, error) {
	engine, err := engines.New(cfg)
	if err != nil {
		return nil, err
	}
	return newPlayerWithEngine(cfg, engine), nil
}

func newPlayerWithEngine(cfg tts.Config, engine tts.Engine) *player {
	catalog := tts.NewCatalog(engine, cfg.Language)
	ctrl := tts.NewController(engine,
		tts.WithCatalog(catalog),
		tts.WithParameters(cfg.Parameters()),
	)
	log.Debug("player ready", "engine", engine.Name(), "params", cfg.Parameters())
	return &player{engine: engine, ctrl: ctrl}
}

// load puts the input text into the controller's text source.
func (p *player) load(in input) error {
	switch {
	case in.path != "":
		return p.ctrl.LoadFile(in.path) //nolint:wrapcheck
	case in.text != nil:
		return p.ctrl.LoadBytes("", in.text) //nolint:wrapcheck
	}
	return nil
}

// refreshVoices loads the catalog once. Failures leave the engine default
// voice in use.
func (p *player) refreshVoices(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, voicesTimeout)
	defer cancel()
	if err := p.ctrl.Catalog().Refresh(ctx); err != nil {
		log.Warn("unable to list voices", "engine", p.engine.Name(), "error", err)
	}
}

// watchVoices keeps the catalog current until ctx is done, for engines that
// can report voice changes.
func (p *player) watchVoices(ctx context.Context) {
	w, ok := p.engine.(tts.VoiceWatcher)
	if !ok {
		return
	}
	go func() {
		if err := p.ctrl.Catalog().Watch(ctx, w); err != nil {
			log.Debug("voice watch stopped", "error", err)
		}
	}()
}

// Close stops playback and releases the engine.
func (p *player) Close() error {
	err := p.ctrl.Close()
	if c, ok := p.engine.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	if err != nil {
		return fmt.Errorf("unable to close player: %w", err)
	}
	return nil
}

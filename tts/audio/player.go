//go:build !nocgo
// +build !nocgo

package audio

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoFormat  Format
	otoErr     error
)

// Player plays PCM clips through oto.
type Player struct {
	format Format
}

// NewPlayer opens the audio device for format. The device is opened once
// per process; a later call with a different format fails.
func NewPlayer(format Format) (*Player, error) {
	otoOnce.Do(func() {
		otoContext, otoErr = newContext(format)
		otoFormat = format
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoFormat != format {
		return nil, fmt.Errorf("audio device already opened at %d Hz", otoFormat.SampleRate)
	}
	return &Player{format: format}, nil
}

func newContext(format Format) (*oto.Context, error) {
	options := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	// Platform-specific buffer size adjustments
	switch runtime.GOOS {
	case "darwin":
		options.BufferSize = 100 * time.Millisecond
	case "windows":
		options.BufferSize = 80 * time.Millisecond
	default:
		options.BufferSize = 50 * time.Millisecond
	}

	log.Debug("initializing audio context", "sample_rate", options.SampleRate, "channels", options.ChannelCount, "buffer_size", options.BufferSize)

	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("%w: audio context initialization timeout", ErrAudioUnavailable)
	}
	return ctx, nil
}

// Format returns the PCM format the player expects.
func (p *Player) Format() Format {
	return p.format
}

// Play starts playing pcm and returns immediately.
func (p *Player) Play(pcm []byte) (Playback, error) {
	if err := p.format.Validate(pcm); err != nil {
		return nil, err
	}
	pb := &otoPlayback{
		player: otoContext.NewPlayer(bytes.NewReader(pcm)),
		done:   make(chan struct{}),
	}
	pb.player.Play()
	go pb.monitor()
	return pb, nil
}

type otoPlayback struct {
	player *oto.Player

	mu     sync.Mutex
	paused bool
	closed bool
	done   chan struct{}
}

// monitor closes done once the player drained its input.
func (pb *otoPlayback) monitor() {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-pb.done:
			return
		case <-ticker.C:
		}

		pb.mu.Lock()
		finished := !pb.paused && !pb.player.IsPlaying()
		pb.mu.Unlock()
		if finished {
			_ = pb.Close()
			return
		}
	}
}

func (pb *otoPlayback) Pause() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.closed {
		return
	}
	pb.paused = true
	pb.player.Pause()
}

func (pb *otoPlayback) Resume() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.closed {
		return
	}
	pb.paused = false
	pb.player.Play()
}

func (pb *otoPlayback) Close() error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.closed {
		return nil
	}
	pb.closed = true
	close(pb.done)
	return pb.player.Close()
}

func (pb *otoPlayback) Done() <-chan struct{} {
	return pb.done
}

package audio

import (
	"sync"
	"time"
)

// Fake is an Output that simulates playback timing without a device.
type Fake struct {
	Format Format
	Speed  float64 // Playback speed multiplier, 0 means real time

	mu     sync.Mutex
	played [][]byte
	err    error
}

// NewFake creates a fake output for the default format.
func NewFake() *Fake {
	return &Fake{Format: DefaultFormat(), Speed: 1}
}

// SetError makes Play fail with err.
func (f *Fake) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Played returns the clips passed to Play.
func (f *Fake) Played() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.played))
	copy(out, f.played)
	return out
}

// Play simulates playing pcm for its duration.
func (f *Fake) Play(pcm []byte) (Playback, error) {
	f.mu.Lock()
	if f.err != nil {
		err := f.err
		f.mu.Unlock()
		return nil, err
	}
	f.played = append(f.played, pcm)
	f.mu.Unlock()

	total := f.Format.Duration(len(pcm))
	if f.Speed > 0 {
		total = time.Duration(float64(total) / f.Speed)
	}

	pb := &fakePlayback{
		remaining: total,
		done:      make(chan struct{}),
	}
	go pb.run()
	return pb, nil
}

type fakePlayback struct {
	mu        sync.Mutex
	remaining time.Duration
	paused    bool
	closed    bool
	done      chan struct{}
}

func (pb *fakePlayback) run() {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-pb.done:
			return
		case now := <-ticker.C:
			pb.mu.Lock()
			if !pb.paused {
				pb.remaining -= now.Sub(last)
			}
			finished := pb.remaining <= 0
			pb.mu.Unlock()
			last = now
			if finished {
				_ = pb.Close()
				return
			}
		}
	}
}

func (pb *fakePlayback) Pause() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.paused = true
}

func (pb *fakePlayback) Resume() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.paused = false
}

// Paused reports whether the playback is paused.
func (pb *fakePlayback) Paused() bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.paused
}

func (pb *fakePlayback) Close() error {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if !pb.closed {
		pb.closed = true
		close(pb.done)
	}
	return nil
}

func (pb *fakePlayback) Done() <-chan struct{} {
	return pb.done
}

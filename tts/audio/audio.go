// Package audio plays synthesized PCM through the system audio device.
package audio

import (
	"errors"
)

// ErrAudioUnavailable is returned when no audio device can be opened.
var ErrAudioUnavailable = errors.New("audio output is not available")

// Output starts playback of signed 16-bit little endian PCM.
type Output interface {
	Play(pcm []byte) (Playback, error)
}

// Playback is a single clip being played. Done is closed when the clip
// finished or was closed.
type Playback interface {
	Pause()
	Resume()
	Close() error
	Done() <-chan struct{}
}

//go:build nocgo
// +build nocgo

package audio

// Player is unavailable in builds without CGO.
type Player struct {
	format Format
}

// NewPlayer always fails in nocgo builds.
func NewPlayer(format Format) (*Player, error) {
	return nil, ErrAudioUnavailable
}

// Format returns the PCM format the player expects.
func (p *Player) Format() Format {
	return p.format
}

// Play always fails in nocgo builds.
func (p *Player) Play(pcm []byte) (Playback, error) {
	return nil, ErrAudioUnavailable
}

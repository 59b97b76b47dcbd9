package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Format describes signed 16-bit little endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat returns the format piper produces: 22050 Hz mono.
func DefaultFormat() Format {
	return Format{SampleRate: 22050, Channels: 1}
}

// FrameSize returns the number of bytes per frame.
func (f Format) FrameSize() int {
	return 2 * f.Channels
}

// Duration returns the playing time of n bytes of PCM.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate == 0 || f.FrameSize() == 0 {
		return 0
	}
	frames := n / f.FrameSize()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Validate checks that data is non-empty and frame aligned.
func (f Format) Validate(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty PCM data")
	}
	if f.FrameSize() == 0 {
		return fmt.Errorf("invalid PCM format: %d channels", f.Channels)
	}
	if len(data)%f.FrameSize() != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte frames", len(data), f.FrameSize())
	}
	return nil
}

// Trim drops a trailing partial frame.
func (f Format) Trim(data []byte) []byte {
	if f.FrameSize() == 0 {
		return data
	}
	return data[:len(data)-len(data)%f.FrameSize()]
}

// ScaleVolume returns a copy of data with every sample multiplied by
// volume, clamped to the int16 range. Volume 1 returns data unchanged.
func ScaleVolume(data []byte, volume float64) []byte {
	if volume == 1 {
		return data
	}
	volume = math.Max(0, volume)

	out := make([]byte, len(data)-len(data)%2)
	for i := 0; i+1 < len(data); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(data[i:])))
		scaled := math.Round(sample * volume)
		scaled = math.Max(math.MinInt16, math.Min(math.MaxInt16, scaled))
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(scaled)))
	}
	return out
}

// Silence returns d worth of silent PCM.
func (f Format) Silence(d time.Duration) []byte {
	frames := int(d.Seconds() * float64(f.SampleRate))
	return make([]byte, frames*f.FrameSize())
}

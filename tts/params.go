package tts

import (
	"fmt"
	"math"
	"strings"
)

// Parameter ranges.
const (
	MinRate   = 0.5
	MaxRate   = 2.0
	MinPitch  = 0.5
	MaxPitch  = 2.0
	MinVolume = 0.0
	MaxVolume = 1.0

	DefaultRate   = 1.0
	DefaultPitch  = 1.0
	DefaultVolume = 1.0
)

// Field names a tunable speech parameter.
type Field int

const (
	// FieldRate is the speaking rate multiplier.
	FieldRate Field = iota
	// FieldPitch is the pitch multiplier.
	FieldPitch
	// FieldVolume is the output volume.
	FieldVolume
)

// String returns the string representation of the field.
func (f Field) String() string {
	switch f {
	case FieldRate:
		return "rate"
	case FieldPitch:
		return "pitch"
	case FieldVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// Range returns the valid bounds and default for the field.
func (f Field) Range() (lo, hi, def float64) {
	switch f {
	case FieldRate:
		return MinRate, MaxRate, DefaultRate
	case FieldPitch:
		return MinPitch, MaxPitch, DefaultPitch
	default:
		return MinVolume, MaxVolume, DefaultVolume
	}
}

// ParseField parses a field name. "speed" is accepted as an alias for rate.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rate", "speed":
		return FieldRate, nil
	case "pitch":
		return FieldPitch, nil
	case "volume":
		return FieldVolume, nil
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}

// Parameters holds the speech parameters applied to an utterance.
type Parameters struct {
	Voice  string  `yaml:"voice" mapstructure:"voice"`
	Rate   float64 `yaml:"rate" mapstructure:"rate"`
	Pitch  float64 `yaml:"pitch" mapstructure:"pitch"`
	Volume float64 `yaml:"volume" mapstructure:"volume"`
}

// DefaultParameters returns normal rate, pitch and full volume with the
// engine default voice.
func DefaultParameters() Parameters {
	return Parameters{
		Rate:   DefaultRate,
		Pitch:  DefaultPitch,
		Volume: DefaultVolume,
	}
}

// Set returns a copy with field set to value, clamped into range.
// Out-of-range input is never rejected.
func (p Parameters) Set(field Field, value float64) Parameters {
	v := clampField(field, value)
	switch field {
	case FieldRate:
		p.Rate = v
	case FieldPitch:
		p.Pitch = v
	case FieldVolume:
		p.Volume = v
	}
	return p
}

// Get returns the value of field.
func (p Parameters) Get(field Field) float64 {
	switch field {
	case FieldRate:
		return p.Rate
	case FieldPitch:
		return p.Pitch
	default:
		return p.Volume
	}
}

// Clamped returns a copy with every numeric field clamped into range.
func (p Parameters) Clamped() Parameters {
	p.Rate = clampField(FieldRate, p.Rate)
	p.Pitch = clampField(FieldPitch, p.Pitch)
	p.Volume = clampField(FieldVolume, p.Volume)
	return p
}

// Resolve looks up the configured voice in the catalog. It returns false
// when no voice is configured or the name is not in the catalog, in which
// case the engine default voice is used.
func (p Parameters) Resolve(c *Catalog) (Voice, bool) {
	if p.Voice == "" || c == nil {
		return Voice{}, false
	}
	return c.Lookup(p.Voice)
}

func clampField(field Field, v float64) float64 {
	lo, hi, def := field.Range()
	if math.IsNaN(v) {
		return def
	}
	return math.Max(lo, math.Min(hi, v))
}

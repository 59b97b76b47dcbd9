package tts

import (
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Engine names accepted in the configuration.
const (
	EngineMock   = "mock"
	EngineEspeak = "espeak"
	EnginePiper  = "piper"
	EngineAuto   = "auto"
)

// Config contains all TTS configuration options.
type Config struct {
	Engine   string `yaml:"engine" mapstructure:"engine"`
	Language string `yaml:"language" mapstructure:"language"` // Preferred voice language substring

	// Initial speech parameters
	Voice  string  `yaml:"voice" mapstructure:"voice"`
	Rate   float64 `yaml:"rate" mapstructure:"rate"`
	Pitch  float64 `yaml:"pitch" mapstructure:"pitch"`
	Volume float64 `yaml:"volume" mapstructure:"volume"`

	// Engine-specific configurations
	Espeak EspeakConfig `yaml:"espeak" mapstructure:"espeak"`
	Piper  PiperConfig  `yaml:"piper" mapstructure:"piper"`
	Mock   MockConfig   `yaml:"mock" mapstructure:"mock"`
}

// EspeakConfig contains espeak-ng engine specific settings.
type EspeakConfig struct {
	Binary         string `yaml:"binary" mapstructure:"binary"`
	WordsPerMinute int    `yaml:"words_per_minute" mapstructure:"words_per_minute"` // At rate 1.0
}

// PiperConfig contains Piper TTS engine specific settings.
type PiperConfig struct {
	Binary     string        `yaml:"binary" mapstructure:"binary"`
	VoicesDir  string        `yaml:"voices_dir" mapstructure:"voices_dir"`
	SampleRate int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"` // Synthesis timeout per utterance

	// Synthesized audio cache
	CacheDir      string `yaml:"cache_dir" mapstructure:"cache_dir"`
	CacheMemoryMB int    `yaml:"cache_memory_mb" mapstructure:"cache_memory_mb"`
	CacheDiskMB   int    `yaml:"cache_disk_mb" mapstructure:"cache_disk_mb"`
	CacheDisabled bool   `yaml:"cache_disabled" mapstructure:"cache_disabled"`
}

// MockConfig contains Mock TTS engine specific settings for demos.
type MockConfig struct {
	StartDelay time.Duration `yaml:"start_delay" mapstructure:"start_delay"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:   EngineAuto,
		Language: DefaultPreferredLanguage,
		Rate:     DefaultRate,
		Pitch:    DefaultPitch,
		Volume:   DefaultVolume,

		Espeak: DefaultEspeakConfig(),
		Piper:  DefaultPiperConfig(),
		Mock:   DefaultMockConfig(),
	}
}

// DefaultEspeakConfig returns default espeak configuration.
func DefaultEspeakConfig() EspeakConfig {
	return EspeakConfig{
		Binary:         "espeak-ng",
		WordsPerMinute: 175,
	}
}

// DefaultPiperConfig returns default Piper configuration.
func DefaultPiperConfig() PiperConfig {
	cfg := PiperConfig{
		Binary:        "piper",
		SampleRate:    22050,
		Timeout:       30 * time.Second,
		CacheMemoryMB: 64,
		CacheDiskMB:   512,
	}

	// Try to detect common Piper installation paths
	if runtime.GOOS == "linux" {
		cfg.VoicesDir = filepath.Join("/usr", "share", "piper", "voices")
	} else if runtime.GOOS == "darwin" {
		cfg.VoicesDir = filepath.Join("/usr", "local", "share", "piper", "voices")
	}

	return cfg
}

// DefaultMockConfig returns default Mock configuration.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		StartDelay: 50 * time.Millisecond,
	}
}

// Parameters returns the initial speech parameters, clamped.
func (c Config) Parameters() Parameters {
	return Parameters{
		Voice:  c.Voice,
		Rate:   c.Rate,
		Pitch:  c.Pitch,
		Volume: c.Volume,
	}.Clamped()
}

// Validate checks if the configuration is valid. The engine name is
// normalized to lower case.
func (c *Config) Validate() error {
	validEngines := []string{EngineMock, EngineEspeak, EnginePiper, EngineAuto}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = strings.ToLower(c.Engine)
			break
		}
	}
	if !engineValid {
		return fmt.Errorf("%w: engine %q must be one of %v", ErrInvalidConfig, c.Engine, validEngines)
	}

	if err := checkRange("rate", c.Rate, MinRate, MaxRate); err != nil {
		return err
	}
	if err := checkRange("pitch", c.Pitch, MinPitch, MaxPitch); err != nil {
		return err
	}
	if err := checkRange("volume", c.Volume, MinVolume, MaxVolume); err != nil {
		return err
	}

	switch c.Engine {
	case EngineEspeak:
		if err := c.Espeak.Validate(); err != nil {
			return fmt.Errorf("espeak config: %w", err)
		}
	case EnginePiper:
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
	case EngineAuto:
		if err := c.Piper.Validate(); err != nil {
			return fmt.Errorf("piper config: %w", err)
		}
		if err := c.Espeak.Validate(); err != nil {
			return fmt.Errorf("espeak config: %w", err)
		}
	case EngineMock:
		if c.Mock.StartDelay < 0 {
			return fmt.Errorf("mock config: %w: start_delay must not be negative", ErrInvalidConfig)
		}
	}

	return nil
}

// Validate checks if the espeak configuration is valid.
func (c *EspeakConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("%w: espeak binary path cannot be empty", ErrInvalidConfig)
	}
	if c.WordsPerMinute < 80 || c.WordsPerMinute > 450 {
		return fmt.Errorf("%w: words_per_minute must be between 80 and 450, got %d", ErrInvalidConfig, c.WordsPerMinute)
	}
	return nil
}

// Validate checks if the Piper configuration is valid.
func (c *PiperConfig) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("%w: piper binary path cannot be empty", ErrInvalidConfig)
	}

	validSampleRates := []int{16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("%w: sample rate %d must be one of %v", ErrInvalidConfig, c.SampleRate, validSampleRates)
	}

	if c.Timeout < time.Second {
		return fmt.Errorf("%w: timeout must be at least 1 second, got %v", ErrInvalidConfig, c.Timeout)
	}
	if c.CacheMemoryMB < 0 || c.CacheDiskMB < 0 {
		return fmt.Errorf("%w: cache sizes must not be negative", ErrInvalidConfig)
	}

	return nil
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%w: %s must be between %.1f and %.1f, got %v", ErrInvalidConfig, name, lo, hi, v)
	}
	return nil
}

package tts

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads TTS configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}
	if viper.IsSet("tts.language") {
		cfg.Language = viper.GetString("tts.language")
	}

	// Speech parameters
	if viper.IsSet("tts.voice") {
		cfg.Voice = viper.GetString("tts.voice")
	}
	if viper.IsSet("tts.rate") {
		cfg.Rate = viper.GetFloat64("tts.rate")
	}
	if viper.IsSet("tts.pitch") {
		cfg.Pitch = viper.GetFloat64("tts.pitch")
	}
	if viper.IsSet("tts.volume") {
		cfg.Volume = viper.GetFloat64("tts.volume")
	}

	cfg.Espeak = loadEspeakConfig()
	cfg.Piper = loadPiperConfig()
	cfg.Mock = loadMockConfig()

	// Validate the loaded configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid TTS configuration: %w", err)
	}

	return cfg, nil
}

// loadEspeakConfig loads espeak-specific configuration from Viper.
func loadEspeakConfig() EspeakConfig {
	cfg := DefaultEspeakConfig()

	if viper.IsSet("tts.espeak.binary") {
		cfg.Binary = viper.GetString("tts.espeak.binary")
	}
	if viper.IsSet("tts.espeak.words_per_minute") {
		cfg.WordsPerMinute = viper.GetInt("tts.espeak.words_per_minute")
	}

	return cfg
}

// loadPiperConfig loads Piper-specific configuration from Viper.
func loadPiperConfig() PiperConfig {
	cfg := DefaultPiperConfig()

	if viper.IsSet("tts.piper.binary") {
		cfg.Binary = viper.GetString("tts.piper.binary")
	}
	if viper.IsSet("tts.piper.voices_dir") {
		cfg.VoicesDir = viper.GetString("tts.piper.voices_dir")
	}
	if viper.IsSet("tts.piper.sample_rate") {
		cfg.SampleRate = viper.GetInt("tts.piper.sample_rate")
	}
	if viper.IsSet("tts.piper.timeout") {
		if d, err := time.ParseDuration(viper.GetString("tts.piper.timeout")); err == nil {
			cfg.Timeout = d
		}
	}
	if viper.IsSet("tts.piper.cache_dir") {
		cfg.CacheDir = viper.GetString("tts.piper.cache_dir")
	}
	if viper.IsSet("tts.piper.cache_memory_mb") {
		cfg.CacheMemoryMB = viper.GetInt("tts.piper.cache_memory_mb")
	}
	if viper.IsSet("tts.piper.cache_disk_mb") {
		cfg.CacheDiskMB = viper.GetInt("tts.piper.cache_disk_mb")
	}
	if viper.IsSet("tts.piper.cache_disabled") {
		cfg.CacheDisabled = viper.GetBool("tts.piper.cache_disabled")
	}

	return cfg
}

// loadMockConfig loads Mock-specific configuration from Viper.
func loadMockConfig() MockConfig {
	cfg := DefaultMockConfig()

	if viper.IsSet("tts.mock.start_delay") {
		if d, err := time.ParseDuration(viper.GetString("tts.mock.start_delay")); err == nil {
			cfg.StartDelay = d
		}
	}

	return cfg
}

// SetDefaults sets default values in Viper for TTS configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("tts.engine", defaults.Engine)
	viper.SetDefault("tts.language", defaults.Language)
	viper.SetDefault("tts.rate", defaults.Rate)
	viper.SetDefault("tts.pitch", defaults.Pitch)
	viper.SetDefault("tts.volume", defaults.Volume)

	// Espeak defaults
	viper.SetDefault("tts.espeak.binary", defaults.Espeak.Binary)
	viper.SetDefault("tts.espeak.words_per_minute", defaults.Espeak.WordsPerMinute)

	// Piper defaults
	viper.SetDefault("tts.piper.binary", defaults.Piper.Binary)
	viper.SetDefault("tts.piper.voices_dir", defaults.Piper.VoicesDir)
	viper.SetDefault("tts.piper.sample_rate", defaults.Piper.SampleRate)
	viper.SetDefault("tts.piper.timeout", defaults.Piper.Timeout.String())
	viper.SetDefault("tts.piper.cache_memory_mb", defaults.Piper.CacheMemoryMB)
	viper.SetDefault("tts.piper.cache_disk_mb", defaults.Piper.CacheDiskMB)

	// Mock defaults
	viper.SetDefault("tts.mock.start_delay", defaults.Mock.StartDelay.String())
}

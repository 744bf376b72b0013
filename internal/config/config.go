// Package config provides the configuration schema and loader for confab.
//
// Configuration is deliberately small: everything confab needs beyond CLI
// flags and credentials is the speaker→voice mapping for synthesis plus a few
// service knobs. Credentials never live in the config file — they come from
// the environment so that scripts can be shared without leaking keys.
package config

import (
	"errors"
	"fmt"
	"os"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// FailurePolicy selects how the synthesis pipeline reacts to a failed
// per-utterance synthesis call.
type FailurePolicy string

const (
	// FailureSkip omits the failed utterance's audio and continues. This is
	// the default best-effort behaviour.
	FailureSkip FailurePolicy = "skip"

	// FailureAbort stops the whole run on the first synthesis failure.
	FailureAbort FailurePolicy = "abort"
)

// IsValid reports whether f is a recognised failure policy.
func (f FailurePolicy) IsValid() bool {
	return f == FailureSkip || f == FailureAbort
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. The -verbose CLI flag forces debug.
	LogLevel LogLevel `yaml:"log_level"`

	// Speakers maps conversation speaker names to voice overrides.
	Speakers map[string]SpeakerConfig `yaml:"speakers"`

	Synthesis     SynthesisConfig     `yaml:"synthesis"`
	Transcription TranscriptionConfig `yaml:"transcription"`
}

// SpeakerConfig is the per-speaker configuration block. All fields are
// optional; an empty Voice falls back to the default rotation.
type SpeakerConfig struct {
	// Voice is the synthesis voice identifier for this speaker
	// (e.g., "en-US-AriaNeural").
	Voice string `yaml:"voice"`
}

// SynthesisConfig holds settings for the markdown→audio pipeline.
type SynthesisConfig struct {
	// DefaultVoices replaces the built-in voice rotation used for speakers
	// without an explicit override. Empty keeps the built-in rotation.
	DefaultVoices []string `yaml:"default_voices"`

	// OutputFormat is the Azure output format name
	// (e.g., "riff-24khz-16bit-mono-pcm"). Empty uses the provider default.
	OutputFormat string `yaml:"output_format"`

	// OnError selects the per-utterance failure policy. Empty means "skip".
	OnError FailurePolicy `yaml:"on_error"`
}

// TranscriptionConfig holds settings for the transcription pipeline.
type TranscriptionConfig struct {
	// Language is the BCP-47 recognition language (e.g., "en-US").
	// Empty uses the provider default.
	Language string `yaml:"language"`
}

// Environment variable names for the Azure Speech credentials.
const (
	EnvSpeechKey    = "AZURE_SPEECH_KEY"
	EnvSpeechRegion = "AZURE_SPEECH_REGION"
)

// Credentials holds the two values required to talk to the speech service.
type Credentials struct {
	Key    string
	Region string
}

// ErrMissingCredentials is returned when either credential variable is unset.
var ErrMissingCredentials = fmt.Errorf(
	"speech credentials not found: set %s and %s", EnvSpeechKey, EnvSpeechRegion)

// CredentialsFromEnv loads the speech service credentials from the
// environment. Absence of either value is a fatal configuration error for
// every mode that talks to the service, reported before any external call.
func CredentialsFromEnv() (Credentials, error) {
	c := Credentials{
		Key:    os.Getenv(EnvSpeechKey),
		Region: os.Getenv(EnvSpeechRegion),
	}
	if c.Key == "" || c.Region == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return c, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Synthesis: SynthesisConfig{
			OnError: FailureSkip,
		},
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf(
			"log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.Synthesis.OnError != "" && !cfg.Synthesis.OnError.IsValid() {
		errs = append(errs, fmt.Errorf(
			"synthesis.on_error %q is invalid; valid values: skip, abort", cfg.Synthesis.OnError))
	}
	for name, sp := range cfg.Speakers {
		if name == "" {
			errs = append(errs, errors.New("speakers: empty speaker name"))
		}
		_ = sp // an empty voice override is allowed; it means "use rotation"
	}
	for i, v := range cfg.Synthesis.DefaultVoices {
		if v == "" {
			errs = append(errs, fmt.Errorf("synthesis.default_voices[%d] is empty", i))
		}
	}

	return errors.Join(errs...)
}

// VoiceFor returns the configured voice override for speaker, if any.
func (c *Config) VoiceFor(speaker string) (string, bool) {
	sp, ok := c.Speakers[speaker]
	if !ok || sp.Voice == "" {
		return "", false
	}
	return sp.Voice, true
}

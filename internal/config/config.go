// Package config provides the configuration schema, loader, and provider registry
// for the greeni companion backend.
package config

import "time"

// LogLevel controls log verbosity for the server.
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

// LogFormat selects the slog handler.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == FormatText || f == FormatJSON
}

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Dialogue  DialogueConfig  `yaml:"dialogue"`
	Speech    SpeechConfig    `yaml:"speech"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings for the HTTP server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8000").
	ListenAddr string `yaml:"listen_addr"`

	LogLevel  LogLevel  `yaml:"log_level"`
	LogFormat LogFormat `yaml:"log_format"`

	// CORSAllowedOrigins lists origins allowed by the CORS middleware.
	// "*" allows any origin.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	MaxBodyBytes MaxBodyConfig `yaml:"max_body_bytes"`
}

// MaxBodyConfig caps request body sizes per request kind.
type MaxBodyConfig struct {
	JSON  int64 `yaml:"json"`
	Audio int64 `yaml:"audio"`
}

// ProvidersConfig declares which provider implementation backs each
// collaborator. Each entry selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`

	// Judge is the LLM used to grade five-questions answers. Empty falls back to LLM.
	Judge ProviderEntry `yaml:"judge"`

	STT ProviderEntry `yaml:"stt"`
	TTS ProviderEntry `yaml:"tts"`

	// TTSFallbacks are tried in order when TTS fails or its breaker is open.
	TTSFallbacks []ProviderEntry `yaml:"tts_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "clova").
	Name string `yaml:"name"`

	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the provider (e.g., "gpt-4o-mini", "whisper-1").
	Model string `yaml:"model"`

	// Timeout bounds a single upstream call. Zero uses the provider default.
	Timeout time.Duration `yaml:"timeout"`

	// Options holds provider-specific values not covered above, such as the
	// CLOVA "key_id" or a default "voice".
	Options map[string]any `yaml:"options"`
}

// OptionString returns Options[key] as a string, or "" when absent or not a string.
func (e ProviderEntry) OptionString(key string) string {
	s, _ := e.Options[key].(string)
	return s
}

// OptionInt returns Options[key] as an int. YAML integers decode as int.
func (e ProviderEntry) OptionInt(key string) (int, bool) {
	switch v := e.Options[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// GenerationConfig holds default sampling parameters for one feature.
type GenerationConfig struct {
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// DialogueConfig configures the conversational features.
type DialogueConfig struct {
	// TurnCeiling is the number of turns after which a session is completed.
	TurnCeiling int `yaml:"turn_ceiling"`

	// SessionIdleTTL purges sessions untouched for this long. Zero disables sweeping.
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`

	Roleplay GenerationConfig `yaml:"roleplay"`
	Diary    GenerationConfig `yaml:"diary"`
	Summary  GenerationConfig `yaml:"summary"`
}

// SpeechConfig configures the speech endpoints.
type SpeechConfig struct {
	// Language is the STT language hint.
	Language string `yaml:"language"`

	// Transcode converts unsupported containers with ffmpeg. Nil means true.
	Transcode  *bool  `yaml:"transcode"`
	FFmpegPath string `yaml:"ffmpeg_path"`

	DefaultVoice string `yaml:"default_voice"`

	Retry RetryConfig `yaml:"retry"`
}

// TranscodeEnabled reports whether ffmpeg transcoding is on.
func (s SpeechConfig) TranscodeEnabled() bool {
	return s.Transcode == nil || *s.Transcode
}

// RetryConfig bounds STT/TTS retries on 429/5xx.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. Nil means 3;
	// an explicit 0 disables retries.
	MaxRetries *int          `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
}

// Retries returns the effective retry count.
func (r RetryConfig) Retries() int {
	if r.MaxRetries == nil {
		return defaultMaxRetries
	}
	return *r.MaxRetries
}

// StorageConfig configures the object store for audio clips.
// An empty Name disables uploads.
type StorageConfig struct {
	Name          string        `yaml:"name"`
	Bucket        string        `yaml:"bucket"`
	Region        string        `yaml:"region"`
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	Prefix        string        `yaml:"prefix"`
	PublicBaseURL string        `yaml:"public_base_url"`
	PresignTTL    time.Duration `yaml:"presign_ttl"`
	PathStyle     bool          `yaml:"path_style"`
}

// Enabled reports whether an object store is configured.
func (s StorageConfig) Enabled() bool { return s.Name != "" }

// TelemetryConfig configures metrics export.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	MetricsPath string `yaml:"metrics_path"`
}

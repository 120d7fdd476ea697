package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":     {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp"},
	"stt":     {"openai", "whisper"},
	"tts":     {"clova", "elevenlabs"},
	"storage": {"s3"},
}

// Defaults applied by [ApplyDefaults].
const (
	defaultListenAddr      = ":8000"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	defaultMaxJSONBytes    = 1 << 20
	defaultMaxAudioBytes   = 25 << 20
	defaultTurnCeiling     = 10
	defaultIdleTTL         = 30 * time.Minute
	defaultSweepInterval   = time.Minute
	defaultLanguage        = "ko"
	defaultFFmpegPath      = "ffmpeg"
	defaultVoice           = "ngaram"
	defaultMaxRetries      = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultPresignTTL      = 15 * time.Minute
	defaultServiceName     = "greeni"
	defaultMetricsPath     = "/metrics"
)

// Parameter bounds shared with the request validators.
const (
	MaxTemperature = 2.0
	MaxTokensLimit = 2048
)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader expands ${VAR} references, decodes a YAML config from r,
// fills environment fallbacks and defaults, and validates the result.
// An empty document yields the default config.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(ExpandEnv(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}

	ApplyEnvFallbacks(cfg)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandEnv replaces ${VAR} references with the value of the environment
// variable VAR. Unset variables expand to "". Bare $ signs are left alone.
func ExpandEnv(raw []byte) []byte {
	return envRef.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// ApplyEnvFallbacks fills empty credentials from the conventional environment
// variables of each provider.
func ApplyEnvFallbacks(cfg *Config) {
	entries := []*ProviderEntry{&cfg.Providers.LLM, &cfg.Providers.Judge, &cfg.Providers.STT, &cfg.Providers.TTS}
	for i := range cfg.Providers.TTSFallbacks {
		entries = append(entries, &cfg.Providers.TTSFallbacks[i])
	}
	for _, e := range entries {
		if e.APIKey != "" {
			continue
		}
		switch e.Name {
		case "openai":
			e.APIKey = os.Getenv("OPENAI_API_KEY")
		case "elevenlabs":
			e.APIKey = os.Getenv("ELEVENLABS_API_KEY")
		case "clova":
			e.APIKey = os.Getenv("CLOVA_API_KEY")
		}
	}
	for _, e := range entries {
		if e.Name != "clova" || e.OptionString("key_id") != "" {
			continue
		}
		if id := os.Getenv("CLOVA_API_KEY_ID"); id != "" {
			if e.Options == nil {
				e.Options = make(map[string]any)
			}
			e.Options["key_id"] = id
		}
	}
}

// ApplyDefaults fills zero-valued fields with their defaults. Judge inherits
// the LLM entry when unset.
func ApplyDefaults(cfg *Config) {
	s := &cfg.Server
	s.ListenAddr = orDefault(s.ListenAddr, defaultListenAddr)
	s.LogLevel = orDefault(s.LogLevel, LogInfo)
	s.LogFormat = orDefault(s.LogFormat, FormatText)
	if len(s.CORSAllowedOrigins) == 0 {
		s.CORSAllowedOrigins = []string{"*"}
	}
	s.ReadTimeout = orDefault(s.ReadTimeout, defaultReadTimeout)
	s.WriteTimeout = orDefault(s.WriteTimeout, defaultWriteTimeout)
	s.ShutdownTimeout = orDefault(s.ShutdownTimeout, defaultShutdownTimeout)
	s.MaxBodyBytes.JSON = orDefault(s.MaxBodyBytes.JSON, defaultMaxJSONBytes)
	s.MaxBodyBytes.Audio = orDefault(s.MaxBodyBytes.Audio, defaultMaxAudioBytes)

	if cfg.Providers.Judge.Name == "" {
		cfg.Providers.Judge = cfg.Providers.LLM
	}

	d := &cfg.Dialogue
	d.TurnCeiling = orDefault(d.TurnCeiling, defaultTurnCeiling)
	d.SessionIdleTTL = orDefault(d.SessionIdleTTL, defaultIdleTTL)
	d.SweepInterval = orDefault(d.SweepInterval, defaultSweepInterval)
	applyGeneration(&d.Roleplay, 0.7, 1.0, 256)
	applyGeneration(&d.Diary, 0.7, 1.0, 256)
	applyGeneration(&d.Summary, 0.3, 1.0, 512)

	sp := &cfg.Speech
	sp.Language = orDefault(sp.Language, defaultLanguage)
	sp.FFmpegPath = orDefault(sp.FFmpegPath, defaultFFmpegPath)
	sp.DefaultVoice = orDefault(sp.DefaultVoice, defaultVoice)
	sp.Retry.BaseDelay = orDefault(sp.Retry.BaseDelay, defaultRetryBaseDelay)

	cfg.Storage.PresignTTL = orDefault(cfg.Storage.PresignTTL, defaultPresignTTL)

	cfg.Telemetry.ServiceName = orDefault(cfg.Telemetry.ServiceName, defaultServiceName)
	cfg.Telemetry.MetricsPath = orDefault(cfg.Telemetry.MetricsPath, defaultMetricsPath)
}

func applyGeneration(g *GenerationConfig, temperature, topP float64, maxTokens int) {
	g.Temperature = orDefault(g.Temperature, temperature)
	g.TopP = orDefault(g.TopP, topP)
	g.MaxTokens = orDefault(g.MaxTokens, maxTokens)
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.LogFormat != "" && !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     cfg.Server.ReadTimeout,
		"server.write_timeout":    cfg.Server.WriteTimeout,
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if cfg.Server.MaxBodyBytes.JSON < 0 || cfg.Server.MaxBodyBytes.Audio < 0 {
		errs = append(errs, errors.New("server.max_body_bytes values must not be negative"))
	}

	// Providers
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("llm", cfg.Providers.Judge.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	for i, fb := range cfg.Providers.TTSFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.tts_fallbacks[%d].name is required", i))
			continue
		}
		validateProviderName("tts", fb.Name)
	}
	if len(cfg.Providers.TTSFallbacks) > 0 && cfg.Providers.TTS.Name == "" {
		errs = append(errs, errors.New("providers.tts_fallbacks requires providers.tts to be configured"))
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; chat, diary and five-questions endpoints will be unavailable")
	}
	for _, e := range []struct {
		path  string
		entry ProviderEntry
	}{
		{"providers.llm", cfg.Providers.LLM},
		{"providers.judge", cfg.Providers.Judge},
		{"providers.stt", cfg.Providers.STT},
		{"providers.tts", cfg.Providers.TTS},
	} {
		if e.entry.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%s.timeout must not be negative", e.path))
		}
	}
	if cfg.Providers.TTS.Name == "clova" && cfg.Providers.TTS.OptionString("key_id") == "" {
		errs = append(errs, errors.New("providers.tts: clova requires options.key_id (or CLOVA_API_KEY_ID)"))
	}
	if cfg.Providers.STT.Name == "whisper" && cfg.Providers.STT.BaseURL == "" {
		errs = append(errs, errors.New("providers.stt: whisper requires base_url"))
	}

	// Dialogue
	if cfg.Dialogue.TurnCeiling < 1 {
		errs = append(errs, fmt.Errorf("dialogue.turn_ceiling %d must be at least 1", cfg.Dialogue.TurnCeiling))
	}
	if cfg.Dialogue.SessionIdleTTL < 0 || cfg.Dialogue.SweepInterval < 0 {
		errs = append(errs, errors.New("dialogue.session_idle_ttl and dialogue.sweep_interval must not be negative"))
	}
	for name, g := range map[string]GenerationConfig{
		"dialogue.roleplay": cfg.Dialogue.Roleplay,
		"dialogue.diary":    cfg.Dialogue.Diary,
		"dialogue.summary":  cfg.Dialogue.Summary,
	} {
		errs = append(errs, validateGeneration(name, g)...)
	}

	// Speech
	if r := cfg.Speech.Retry.Retries(); r < 0 {
		errs = append(errs, fmt.Errorf("speech.retry.max_retries %d must not be negative", r))
	}
	if cfg.Speech.Retry.BaseDelay < 0 {
		errs = append(errs, errors.New("speech.retry.base_delay must not be negative"))
	}

	// Storage
	if cfg.Storage.Enabled() {
		validateProviderName("storage", cfg.Storage.Name)
		if cfg.Storage.Bucket == "" {
			errs = append(errs, errors.New("storage.bucket is required when storage.name is set"))
		}
		if (cfg.Storage.AccessKey == "") != (cfg.Storage.SecretKey == "") {
			errs = append(errs, errors.New("storage.access_key and storage.secret_key must be set together"))
		}
	}

	// Telemetry
	if p := cfg.Telemetry.MetricsPath; p != "" && !strings.HasPrefix(p, "/") {
		errs = append(errs, fmt.Errorf("telemetry.metrics_path %q must start with /", p))
	}

	return errors.Join(errs...)
}

func validateGeneration(prefix string, g GenerationConfig) []error {
	var errs []error
	if g.Temperature < 0 || g.Temperature > MaxTemperature {
		errs = append(errs, fmt.Errorf("%s.temperature %.2f is out of range [0, %.0f]", prefix, g.Temperature, MaxTemperature))
	}
	if g.TopP < 0 || g.TopP > 1 {
		errs = append(errs, fmt.Errorf("%s.top_p %.2f is out of range (0, 1]", prefix, g.TopP))
	}
	if g.MaxTokens < 0 || g.MaxTokens > MaxTokensLimit {
		errs = append(errs, fmt.Errorf("%s.max_tokens %d is out of range [1, %d]", prefix, g.MaxTokens, MaxTokensLimit))
	}
	return errs
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

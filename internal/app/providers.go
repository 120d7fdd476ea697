package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/greeni/internal/config"
	"github.com/MrWong99/greeni/internal/storage"
	"github.com/MrWong99/greeni/internal/storage/s3store"
	"github.com/MrWong99/greeni/pkg/provider/llm"
	"github.com/MrWong99/greeni/pkg/provider/llm/anyllm"
	oallm "github.com/MrWong99/greeni/pkg/provider/llm/openai"
	"github.com/MrWong99/greeni/pkg/provider/stt"
	oastt "github.com/MrWong99/greeni/pkg/provider/stt/openai"
	"github.com/MrWong99/greeni/pkg/provider/stt/whisper"
	"github.com/MrWong99/greeni/pkg/provider/tts"
	"github.com/MrWong99/greeni/pkg/provider/tts/clova"
	"github.com/MrWong99/greeni/pkg/provider/tts/elevenlabs"
)

// Named pairs a provider with the config name it was built from. The name
// labels metrics, logs and circuit breakers.
type Named[T any] struct {
	Name     string
	Provider T
}

// Providers holds the constructed collaborators. A zero Named means the slot
// is not configured and its endpoints answer 503.
type Providers struct {
	LLM          Named[llm.Provider]
	Judge        Named[llm.Provider]
	STT          Named[stt.Provider]
	TTS          Named[tts.Provider]
	TTSFallbacks []Named[tts.Provider]
	Store        storage.Store
}

// anyLLMProviders are served through any-llm-go.
var anyLLMProviders = []string{"anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}

// RegisterBuiltins wires every provider implementation shipped with greeni into reg.
func RegisterBuiltins(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────

	reg.RegisterLLM("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		var opts []oallm.Option
		if e.BaseURL != "" {
			opts = append(opts, oallm.WithBaseURL(e.BaseURL))
		}
		if e.Timeout > 0 {
			opts = append(opts, oallm.WithTimeout(e.Timeout))
		}
		if org := e.OptionString("organization"); org != "" {
			opts = append(opts, oallm.WithOrganization(org))
		}
		return oallm.New(e.APIKey, e.Model, opts...)
	})

	for _, name := range anyLLMProviders {
		reg.RegisterLLM(name, func(e config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if e.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
			}
			if e.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
			}
			return anyllm.New(name, e.Model, opts...)
		})
	}

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("openai", func(e config.ProviderEntry) (stt.Provider, error) {
		var opts []oastt.Option
		if e.Model != "" {
			opts = append(opts, oastt.WithModel(e.Model))
		}
		if lang := e.OptionString("language"); lang != "" {
			opts = append(opts, oastt.WithLanguage(lang))
		}
		if e.BaseURL != "" {
			opts = append(opts, oastt.WithBaseURL(e.BaseURL))
		}
		if e.Timeout > 0 {
			opts = append(opts, oastt.WithTimeout(e.Timeout))
		}
		return oastt.New(e.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(e config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if e.Model != "" {
			opts = append(opts, whisper.WithModel(e.Model))
		}
		if lang := e.OptionString("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if e.Timeout > 0 {
			opts = append(opts, whisper.WithHTTPClient(&http.Client{Timeout: e.Timeout}))
		}
		return whisper.New(e.BaseURL, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("clova", func(e config.ProviderEntry) (tts.Provider, error) {
		var opts []clova.Option
		if e.BaseURL != "" {
			opts = append(opts, clova.WithEndpoint(e.BaseURL))
		}
		if v := e.OptionString("voice"); v != "" {
			opts = append(opts, clova.WithSpeaker(v))
		}
		if pitch, ok := e.OptionInt("pitch"); ok {
			opts = append(opts, clova.WithPitch(pitch))
		}
		if e.Timeout > 0 {
			opts = append(opts, clova.WithTimeout(e.Timeout))
		}
		return clova.New(e.OptionString("key_id"), e.APIKey, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(e config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if e.Model != "" {
			opts = append(opts, elevenlabs.WithModel(e.Model))
		}
		if v := e.OptionString("voice"); v != "" {
			opts = append(opts, elevenlabs.WithVoice(v))
		}
		if e.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(e.BaseURL))
		}
		return elevenlabs.New(e.APIKey, opts...)
	})

	// ── Storage ───────────────────────────────────────────────────────────────

	reg.RegisterStorage("s3", func(ctx context.Context, c config.StorageConfig) (storage.Store, error) {
		return s3store.New(ctx, s3store.Config{
			Bucket:        c.Bucket,
			Region:        c.Region,
			Endpoint:      c.Endpoint,
			AccessKey:     c.AccessKey,
			SecretKey:     c.SecretKey,
			Prefix:        c.Prefix,
			PublicBaseURL: c.PublicBaseURL,
			PresignTTL:    c.PresignTTL,
			PathStyle:     c.PathStyle,
		})
	})
}

// BuildProviders instantiates every provider named in cfg through reg.
// Unnamed slots stay empty. A configured name without a registered factory
// is skipped with a warning so the remaining features still come up.
func BuildProviders(ctx context.Context, cfg *config.Config, reg *config.Registry) (*Providers, error) {
	ps := &Providers{}
	p := cfg.Providers

	var err error
	if ps.LLM, err = create("llm", p.LLM, reg.CreateLLM); err != nil {
		return nil, err
	}
	// The judge usually shares the chat entry; reuse the client then.
	if ps.LLM.Provider != nil && reflect.DeepEqual(p.Judge, p.LLM) {
		ps.Judge = ps.LLM
	} else if ps.Judge, err = create("judge", p.Judge, reg.CreateLLM); err != nil {
		return nil, err
	}
	if ps.STT, err = create("stt", p.STT, reg.CreateSTT); err != nil {
		return nil, err
	}
	if ps.TTS, err = create("tts", p.TTS, reg.CreateTTS); err != nil {
		return nil, err
	}
	for i, entry := range p.TTSFallbacks {
		fb, err := create(fmt.Sprintf("tts_fallbacks[%d]", i), entry, reg.CreateTTS)
		if err != nil {
			return nil, err
		}
		if fb.Provider != nil {
			ps.TTSFallbacks = append(ps.TTSFallbacks, fb)
		}
	}

	if cfg.Storage.Enabled() {
		st, err := reg.CreateStorage(ctx, cfg.Storage)
		switch {
		case errors.Is(err, config.ErrProviderNotRegistered):
			slog.Warn("storage backend not available, uploads disabled", "name", cfg.Storage.Name)
		case err != nil:
			return nil, fmt.Errorf("create storage %q: %w", cfg.Storage.Name, err)
		default:
			ps.Store = st
			slog.Info("storage created", "name", cfg.Storage.Name, "bucket", cfg.Storage.Bucket)
		}
	}
	return ps, nil
}

func create[T any](kind string, entry config.ProviderEntry, factory func(config.ProviderEntry) (T, error)) (Named[T], error) {
	if entry.Name == "" {
		return Named[T]{}, nil
	}
	p, err := factory(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("provider not available, feature disabled", "kind", kind, "name", entry.Name)
		return Named[T]{}, nil
	}
	if err != nil {
		return Named[T]{}, fmt.Errorf("create %s provider %q: %w", kind, entry.Name, err)
	}
	slog.Info("provider created", "kind", kind, "name", entry.Name, "model", entry.Model)
	return Named[T]{Name: entry.Name, Provider: p}, nil
}

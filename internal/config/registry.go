package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MrWong99/greeni/internal/storage"
	"github.com/MrWong99/greeni/pkg/provider/llm"
	"github.com/MrWong99/greeni/pkg/provider/stt"
	"github.com/MrWong99/greeni/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by the Create methods when no factory
// exists under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Factory types for each provider kind.
type (
	LLMFactory     func(ProviderEntry) (llm.Provider, error)
	STTFactory     func(ProviderEntry) (stt.Provider, error)
	TTSFactory     func(ProviderEntry) (tts.Provider, error)
	StorageFactory func(ctx context.Context, cfg StorageConfig) (storage.Store, error)
)

// factories is a name-keyed set of constructors for one provider kind.
type factories[F any] struct {
	kind string
	mu   sync.RWMutex
	m    map[string]F
}

func newFactories[F any](kind string) *factories[F] {
	return &factories[F]{kind: kind, m: make(map[string]F)}
}

func (f *factories[F]) set(name string, factory F) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[name] = factory
}

func (f *factories[F]) get(name string) (F, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	factory, ok := f.m[name]
	if !ok {
		return factory, fmt.Errorf("%w: %s/%q", ErrProviderNotRegistered, f.kind, name)
	}
	return factory, nil
}

// Registry maps provider names from the config file to constructors. Later
// registrations under the same name replace earlier ones. It is safe for
// concurrent use.
type Registry struct {
	llm     *factories[LLMFactory]
	stt     *factories[STTFactory]
	tts     *factories[TTSFactory]
	storage *factories[StorageFactory]
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		llm:     newFactories[LLMFactory]("llm"),
		stt:     newFactories[STTFactory]("stt"),
		tts:     newFactories[TTSFactory]("tts"),
		storage: newFactories[StorageFactory]("storage"),
	}
}

func (r *Registry) RegisterLLM(name string, f LLMFactory)         { r.llm.set(name, f) }
func (r *Registry) RegisterSTT(name string, f STTFactory)         { r.stt.set(name, f) }
func (r *Registry) RegisterTTS(name string, f TTSFactory)         { r.tts.set(name, f) }
func (r *Registry) RegisterStorage(name string, f StorageFactory) { r.storage.set(name, f) }

// CreateLLM builds the chat model named by entry.Name.
func (r *Registry) CreateLLM(entry ProviderEntry) (llm.Provider, error) {
	f, err := r.llm.get(entry.Name)
	if err != nil {
		return nil, err
	}
	return f(entry)
}

// CreateSTT builds the transcription backend named by entry.Name.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	f, err := r.stt.get(entry.Name)
	if err != nil {
		return nil, err
	}
	return f(entry)
}

// CreateTTS builds the synthesis backend named by entry.Name.
func (r *Registry) CreateTTS(entry ProviderEntry) (tts.Provider, error) {
	f, err := r.tts.get(entry.Name)
	if err != nil {
		return nil, err
	}
	return f(entry)
}

// CreateStorage builds the object store named by cfg.Name.
func (r *Registry) CreateStorage(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	f, err := r.storage.get(cfg.Name)
	if err != nil {
		return nil, err
	}
	return f(ctx, cfg)
}

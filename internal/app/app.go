// Package app wires the greeni subsystems into a running HTTP service.
//
// New builds every use case from the config and the constructed providers,
// Run serves until the context is cancelled, and Shutdown drains in-flight
// requests and flushes telemetry.
//
// Tests inject doubles through [Providers] and skip the global OpenTelemetry
// setup with [WithMetrics].
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/greeni/internal/config"
	"github.com/MrWong99/greeni/internal/dialogue"
	"github.com/MrWong99/greeni/internal/game"
	"github.com/MrWong99/greeni/internal/health"
	"github.com/MrWong99/greeni/internal/httpapi"
	"github.com/MrWong99/greeni/internal/observe"
	"github.com/MrWong99/greeni/internal/resilience"
	"github.com/MrWong99/greeni/internal/speech"
)

// App owns the HTTP server and the background loops.
type App struct {
	cfg       *config.Config
	providers *Providers

	version    string
	configPath string
	watchOpts  []config.WatcherOption
	logLevel   *slog.LevelVar

	telemetry *observe.Telemetry
	metrics   *observe.Metrics
	metricsH  http.Handler

	roleplay *dialogue.Store
	diary    *dialogue.Store
	sweeper  *dialogue.Sweeper
	watcher  *config.Watcher
	handler  http.Handler
	server   *http.Server

	stopOnce sync.Once
}

// Option configures an [App].
type Option func(*App)

// WithVersion sets the service version reported in telemetry.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// WithConfigWatch polls path for edits. A changed log level is applied to
// lv (which should back the process logger); other edits are logged as
// needing a restart.
func WithConfigWatch(path string, lv *slog.LevelVar, opts ...config.WatcherOption) Option {
	return func(a *App) {
		a.configPath = path
		a.logLevel = lv
		a.watchOpts = opts
	}
}

// WithMetrics uses m and serves metricsHandler instead of initialising the
// global OpenTelemetry providers. metricsHandler may be nil.
func WithMetrics(m *observe.Metrics, metricsHandler http.Handler) Option {
	return func(a *App) {
		a.metrics = m
		a.metricsH = metricsHandler
	}
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New wires the application. Provider slots left empty disable their
// endpoints; nothing here dials an upstream.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config must not be nil")
	}
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{cfg: cfg, providers: providers}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Telemetry ─────────────────────────────────────────────────────
	if a.metrics == nil {
		if err := a.initTelemetry(ctx); err != nil {
			return nil, fmt.Errorf("app: init telemetry: %w", err)
		}
	}

	// ── 2. Use cases ─────────────────────────────────────────────────────
	deps, err := a.buildDeps()
	if err != nil {
		return nil, fmt.Errorf("app: build use cases: %w", err)
	}

	// ── 3. Background loops ──────────────────────────────────────────────
	d := cfg.Dialogue
	a.sweeper = dialogue.NewSweeper(d.SessionIdleTTL, d.SweepInterval, a.roleplay, a.diary)
	if a.configPath != "" {
		a.watcher, err = config.NewWatcher(a.configPath, a.onConfigChange, a.watchOpts...)
		if err != nil {
			return nil, fmt.Errorf("app: config watcher: %w", err)
		}
	}

	// ── 4. HTTP ──────────────────────────────────────────────────────────
	srvOpts := []httpapi.Option{
		httpapi.WithLimits(httpapi.Limits{JSON: cfg.Server.MaxBodyBytes.JSON, Audio: cfg.Server.MaxBodyBytes.Audio}),
		httpapi.WithCORSOrigins(cfg.Server.CORSAllowedOrigins...),
		httpapi.WithMetrics(a.metrics),
	}
	if a.metricsH != nil {
		srvOpts = append(srvOpts, httpapi.WithMetricsHandler(cfg.Telemetry.MetricsPath, a.metricsH))
	}
	srv, err := httpapi.New(deps, srvOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: http server: %w", err)
	}
	a.handler = srv.Handler()
	a.server = &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

func (a *App) initTelemetry(ctx context.Context) error {
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    a.cfg.Telemetry.ServiceName,
		ServiceVersion: a.version,
	})
	if err != nil {
		return err
	}
	m, err := observe.NewMetrics(tel.MeterProvider)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return err
	}
	a.telemetry = tel
	a.metrics = m
	a.metricsH = observe.MetricsHandler(tel.Registry)
	return nil
}

// buildDeps turns providers into the use cases served over HTTP.
func (a *App) buildDeps() (httpapi.Deps, error) {
	cfg, ps, m := a.cfg, a.providers, a.metrics
	d := cfg.Dialogue

	a.roleplay = dialogue.NewStore(dialogue.FeatureRoleplay, dialogue.WithStoreMetrics(m))
	a.diary = dialogue.NewStore(dialogue.FeatureDiary, dialogue.WithStoreMetrics(m))

	deps := httpapi.Deps{Checker: game.NewChecker()}

	var err error
	if deps.RoleplayClose, err = dialogue.NewLifecycle(a.roleplay, nil); err != nil {
		return deps, err
	}

	if chat := ps.LLM; chat.Provider != nil {
		p := observe.WrapLLM(chat.Provider, chat.Name, m)
		common := []dialogue.OrchestratorOption{
			dialogue.WithTurnCeiling(d.TurnCeiling),
			dialogue.WithMetrics(m),
			dialogue.WithProviderName(chat.Name),
		}
		deps.Roleplay, err = dialogue.NewOrchestrator(a.roleplay, p, append(common,
			dialogue.WithGenerationParams(generation(d.Roleplay)),
			dialogue.WithPurgeAtCeiling(true),
		)...)
		if err != nil {
			return deps, err
		}
		deps.Diary, err = dialogue.NewOrchestrator(a.diary, p, append(common,
			dialogue.WithGenerationParams(generation(d.Diary)),
		)...)
		if err != nil {
			return deps, err
		}
		deps.DiaryLife, err = dialogue.NewLifecycle(a.diary, p,
			dialogue.WithSummaryParams(generation(d.Summary)),
			dialogue.WithSummaryProviderName(chat.Name),
		)
		if err != nil {
			return deps, err
		}
	}

	if judge := ps.Judge; judge.Provider != nil {
		deps.Judge, err = game.NewJudge(observe.WrapLLM(judge.Provider, judge.Name, m), judge.Name)
		if err != nil {
			return deps, err
		}
	}

	deps.Speech = speech.New(a.speechOptions()...)
	deps.Health = health.New(a.readinessChecks()...)
	return deps, nil
}

func (a *App) speechOptions() []speech.Option {
	cfg, ps, m := a.cfg.Speech, a.providers, a.metrics
	opts := []speech.Option{
		speech.WithLanguage(cfg.Language),
		speech.WithDefaultVoice(cfg.DefaultVoice),
	}
	if cfg.TranscodeEnabled() {
		opts = append(opts, speech.WithTranscoder(&speech.FFmpeg{Path: cfg.FFmpegPath}))
	}

	fb := resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, from, to resilience.State) {
				slog.Warn("circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
			},
		},
	}
	if s := ps.STT; s.Provider != nil {
		opts = append(opts, speech.WithSTT(resilience.NewSTTFallback(
			observe.WrapSTT(s.Provider, s.Name, m), s.Name, fb, a.retryPolicy("stt"))))
	}
	if t := ps.TTS; t.Provider != nil {
		chain := resilience.NewTTSFallback(observe.WrapTTS(t.Provider, t.Name, m), t.Name, fb, a.retryPolicy("tts"))
		for _, f := range ps.TTSFallbacks {
			chain.AddFallback(f.Name, observe.WrapTTS(f.Provider, f.Name, m))
		}
		opts = append(opts, speech.WithTTS(chain))
	}
	if ps.Store != nil {
		opts = append(opts, speech.WithStore(ps.Store))
	}
	return opts
}

// retryPolicy builds the speech retry policy from config. Chat completions
// never go through it.
func (a *App) retryPolicy(kind string) resilience.RetryPolicy {
	rc := a.cfg.Speech.Retry
	return resilience.RetryPolicy{
		MaxRetries: uint64(max(rc.Retries(), 0)),
		BaseDelay:  rc.BaseDelay,
		OnRetry: func(ctx context.Context, attempt int, err error) {
			a.metrics.RecordRetry(ctx, kind)
			observe.Logger(ctx).Warn("retrying upstream call", "kind", kind, "attempt", attempt, "err", err)
		},
	}
}

// readinessChecks reports the configured collaborators. Chat is the core
// feature, so a missing LLM fails readiness; speech checks are only added
// when those features are configured.
func (a *App) readinessChecks() []health.Checker {
	ps := a.providers
	checks := []health.Checker{{
		Name: "llm",
		Check: func(context.Context) error {
			if ps.LLM.Provider == nil {
				return errors.New("not configured")
			}
			return nil
		},
	}}
	if ps.STT.Provider != nil && a.cfg.Speech.TranscodeEnabled() {
		path := a.cfg.Speech.FFmpegPath
		checks = append(checks, health.Checker{
			Name: "ffmpeg",
			Check: func(context.Context) error {
				_, err := exec.LookPath(path)
				return err
			},
		})
	}
	return checks
}

func generation(g config.GenerationConfig) dialogue.GenerationParams {
	return dialogue.GenerationParams{Temperature: g.Temperature, TopP: g.TopP, MaxTokens: g.MaxTokens}
}

// onConfigChange applies what can change at runtime and flags the rest.
func (a *App) onConfigChange(old, updated *config.Config) {
	diff := config.Diff(old, updated)
	if diff.LogLevelChanged && a.logLevel != nil {
		lvl, err := observe.ParseLevel(string(diff.NewLogLevel))
		if err == nil {
			a.logLevel.Set(lvl)
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
	}
	if len(diff.RestartRequired) > 0 {
		slog.Warn("config changes need a restart to take effect", "sections", diff.RestartRequired)
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Handler returns the HTTP handler tree. Useful for tests and embedding.
func (a *App) Handler() http.Handler { return a.handler }

// Run listens on the configured address and serves until ctx is cancelled or
// the listener fails. On cancellation in-flight requests get
// server.shutdown_timeout to finish.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is [App.Run] on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error { return a.sweeper.Run(gctx) })
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return err
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown drains in-flight requests and flushes telemetry. It is safe to
// call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		slog.Info("shutting down")
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http: %w", err))
		}
		if a.telemetry != nil {
			if err := a.telemetry.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("telemetry: %w", err))
			}
		}
		slog.Info("shutdown complete",
			"roleplay_sessions", a.roleplay.Len(),
			"diary_sessions", a.diary.Len())
	})
	return errors.Join(errs...)
}

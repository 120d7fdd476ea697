// Package httpapi exposes the companion backend over HTTP/JSON.
//
// Every handler decodes a JSON (or multipart) request, calls one use case in
// dialogue, speech or game, and writes either a JSON body or the uniform
// {error, code} envelope built from an [apperr.Error].
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrWong99/greeni/internal/apperr"
	"github.com/MrWong99/greeni/internal/dialogue"
	"github.com/MrWong99/greeni/internal/game"
	"github.com/MrWong99/greeni/internal/health"
	"github.com/MrWong99/greeni/internal/observe"
	"github.com/MrWong99/greeni/internal/speech"
)

// Default body limits used when [Limits] fields are zero.
const (
	DefaultMaxJSONBytes  = 1 << 20
	DefaultMaxAudioBytes = 25 << 20
)

// maxSessionIDLen caps caller-supplied session ids.
const maxSessionIDLen = 128

// Limits caps request body sizes.
type Limits struct {
	JSON  int64
	Audio int64
}

// Deps are the use cases served. Nil members make their endpoints answer
// 503 feature_unavailable.
type Deps struct {
	Roleplay      *dialogue.Orchestrator
	RoleplayClose *dialogue.Lifecycle
	Diary         *dialogue.Orchestrator
	DiaryLife     *dialogue.Lifecycle
	Speech        *speech.Service
	Checker       *game.Checker
	Judge         *game.Judge
	Health        *health.Handler
}

// Server routes requests to the use cases.
type Server struct {
	deps        Deps
	limits      Limits
	origins     []string
	metrics     *observe.Metrics
	metricsPath string
	metricsH    http.Handler
}

// Option configures a [Server].
type Option func(*Server)

// WithLimits sets body size limits.
func WithLimits(l Limits) Option {
	return func(s *Server) {
		if l.JSON > 0 {
			s.limits.JSON = l.JSON
		}
		if l.Audio > 0 {
			s.limits.Audio = l.Audio
		}
	}
}

// WithCORSOrigins sets the allowed origins. "*" allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithMetrics records HTTP latency into m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler serves h at path (e.g. a Prometheus handler at /metrics).
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsH = h
	}
}

// New returns a [Server]. Health is required; every other dependency is optional.
func New(deps Deps, opts ...Option) (*Server, error) {
	if deps.Health == nil {
		return nil, errors.New("httpapi: health handler must not be nil")
	}
	if deps.Checker == nil {
		deps.Checker = game.NewChecker()
	}
	s := &Server{
		deps:    deps,
		limits:  Limits{JSON: DefaultMaxJSONBytes, Audio: DefaultMaxAudioBytes},
		metrics: observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Handler returns the full middleware-wrapped handler tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.deps.Health.Register(mux)
	if s.metricsH != nil && s.metricsPath != "" {
		mux.Handle("GET "+s.metricsPath, s.metricsH)
	}

	mux.HandleFunc("POST /chat/roleplay", tagged("roleplay", s.handleRoleplay))
	mux.HandleFunc("POST /chat/roleplay/close", tagged("roleplay", s.handleRoleplayClose))

	mux.HandleFunc("POST /diary/chat", tagged("diary", s.handleDiaryChat))
	mux.HandleFunc("POST /diary/end", tagged("diary", s.handleDiaryEnd))
	mux.HandleFunc("POST /diary/summarize", tagged("diary", s.handleDiarySummarize))

	mux.HandleFunc("POST /stt/transcribe", tagged("stt", s.handleTranscribe))
	mux.HandleFunc("POST /tts/speak", tagged("tts", s.handleSpeak))

	mux.HandleFunc("POST /game/animal/check", tagged("animal", s.handleAnimalCheck))
	mux.HandleFunc("POST /game/twentyq/check", tagged("twentyq", s.handleTwentyQCheck))
	mux.HandleFunc("POST /game/fiveq/check", tagged("fiveq", s.handleFiveQCheck))

	var h http.Handler = envelopeUnmatched(mux)
	h = CORS(s.origins, h)
	h = Recover(h)
	h = observe.Middleware(s.metrics, observe.WithQuietPaths("/health", "/readyz", s.metricsPath))(h)
	h = observe.RequestIDMiddleware(h)
	return h
}

// tagged labels every log line written for the route with feature.
func tagged(feature string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r.WithContext(observe.WithLogAttrs(r.Context(), slog.String("feature", feature))))
	}
}

// withSession labels later log lines of r with the session id.
func withSession(r *http.Request, id string) *http.Request {
	return r.WithContext(observe.WithLogAttrs(r.Context(), slog.String("session_id", id)))
}

// envelopeUnmatched answers unknown paths and wrong methods with the JSON
// envelope instead of the mux's plain-text replies.
func envelopeUnmatched(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}
		for _, m := range []string{http.MethodGet, http.MethodPost} {
			if m == r.Method {
				continue
			}
			probe := r.Clone(r.Context())
			probe.Method = m
			if _, pattern := mux.Handler(probe); pattern != "" {
				w.Header().Set("Allow", m)
				writeError(w, r, &apperr.Error{
					Kind:    apperr.KindValidation,
					Code:    apperr.CodeMethodNotAllowed,
					Message: "method not allowed",
					Status:  http.StatusMethodNotAllowed,
				})
				return
			}
		}
		writeError(w, r, apperr.NotFound(apperr.CodeNotFound, "not found"))
	})
}

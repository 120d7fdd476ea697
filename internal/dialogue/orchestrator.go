package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/greeni/internal/observe"
	"github.com/MrWong99/greeni/pkg/provider/llm"
)

// DefaultTurnCeiling is the number of exchanges after which a session is
// completed.
const DefaultTurnCeiling = 10

var (
	// ErrUpstream wraps every chat-completion failure.
	ErrUpstream = errors.New("dialogue: chat completion failed")

	// ErrEmptyReply is returned when the model answers with blank text.
	ErrEmptyReply = errors.New("dialogue: empty completion")

	// ErrSessionCompleted rejects a turn on a session that reached its ceiling.
	ErrSessionCompleted = errors.New("dialogue: session already completed")

	// ErrSessionNotFound is returned when no history is stored for an id.
	ErrSessionNotFound = errors.New("dialogue: session not found")
)

// Generation parameter bounds accepted from callers.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinTopP        = 0.0 // exclusive
	MaxTopP        = 1.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 2048
)

// GenerationParams are the sampling settings of one completion.
type GenerationParams struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Overrides carries optional per-request replacements for [GenerationParams].
type Overrides struct {
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Apply returns p with every set override replaced.
func (p GenerationParams) Apply(o Overrides) GenerationParams {
	if o.Temperature != nil {
		p.Temperature = *o.Temperature
	}
	if o.TopP != nil {
		p.TopP = *o.TopP
	}
	if o.MaxTokens != nil {
		p.MaxTokens = *o.MaxTokens
	}
	return p
}

// Validate reports the first override outside the accepted bounds, naming
// the offending field.
func (o Overrides) Validate() error {
	if o.Temperature != nil && (*o.Temperature < MinTemperature || *o.Temperature > MaxTemperature) {
		return fmt.Errorf("temperature must be within [%g, %g]", MinTemperature, MaxTemperature)
	}
	if o.TopP != nil && (*o.TopP <= MinTopP || *o.TopP > MaxTopP) {
		return fmt.Errorf("top_p must be within (%g, %g]", MinTopP, MaxTopP)
	}
	if o.MaxTokens != nil && (*o.MaxTokens < MinMaxTokens || *o.MaxTokens > MaxMaxTokens) {
		return fmt.Errorf("max_tokens must be within [%d, %d]", MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

// TurnRequest is the input to [Orchestrator.Turn].
type TurnRequest struct {
	SessionID string
	// Role selects the role-play persona. Ignored for the diary.
	Role      Role
	Text      string
	Overrides Overrides
}

// TurnResult is the outcome of one exchange.
type TurnResult struct {
	Reply     string
	TurnCount int
	// Status is [StatusActive] or [StatusCompleted].
	Status Status
	// Closing reports whether this turn carried the closing directive.
	Closing bool
}

// Orchestrator runs dialogue turns for one feature.
type Orchestrator struct {
	store          *Store
	llm            llm.Provider
	ceiling        int
	params         GenerationParams
	purgeAtCeiling bool
	metrics        *observe.Metrics
	providerName   string
}

// OrchestratorOption configures an [Orchestrator].
type OrchestratorOption func(*Orchestrator)

// WithTurnCeiling sets the exchange limit. Values below 1 are ignored.
func WithTurnCeiling(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.ceiling = n
		}
	}
}

// WithGenerationParams sets the feature's default sampling settings.
func WithGenerationParams(p GenerationParams) OrchestratorOption {
	return func(o *Orchestrator) { o.params = p }
}

// WithPurgeAtCeiling discards the session as soon as it completes instead of
// retaining it for summarization.
func WithPurgeAtCeiling(purge bool) OrchestratorOption {
	return func(o *Orchestrator) { o.purgeAtCeiling = purge }
}

// WithMetrics records turn counters on m.
func WithMetrics(m *observe.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithProviderName labels the "llm call done" log line.
func WithProviderName(name string) OrchestratorOption {
	return func(o *Orchestrator) { o.providerName = name }
}

// NewOrchestrator creates an [Orchestrator] over store using provider for
// completions.
func NewOrchestrator(store *Store, provider llm.Provider, opts ...OrchestratorOption) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("dialogue: store must not be nil")
	}
	if provider == nil {
		return nil, errors.New("dialogue: llm provider must not be nil")
	}
	o := &Orchestrator{
		store:   store,
		llm:     provider,
		ceiling: DefaultTurnCeiling,
		params:  GenerationParams{Temperature: 0.7, TopP: 1.0, MaxTokens: 256},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Ceiling returns the configured turn ceiling.
func (o *Orchestrator) Ceiling() int { return o.ceiling }

// Store returns the session store the orchestrator mutates.
func (o *Orchestrator) Store() *Store { return o.store }

// Turn runs one child/assistant exchange. Turns on the same session id are
// serialized; the pair is appended only after a usable reply arrives, so a
// failed or cancelled call leaves history untouched.
func (o *Orchestrator) Turn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	feature := o.store.Feature()
	if feature == FeatureRoleplay {
		// Reject an unknown persona before touching the store.
		if _, err := BuildSystemPrompt(feature, req.Role, false); err != nil {
			return TurnResult{}, err
		}
	}

	unlock, err := o.store.Lock(ctx, req.SessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("dialogue: wait for session %q: %w", req.SessionID, err)
	}
	defer unlock()

	snap, created := o.store.GetOrCreate(req.SessionID)
	if snap.Status == StatusCompleted {
		return TurnResult{TurnCount: snap.TurnCount, Status: StatusCompleted}, ErrSessionCompleted
	}

	closing := snap.TurnCount == o.ceiling-1
	system, err := BuildSystemPrompt(feature, req.Role, closing)
	if err != nil {
		return TurnResult{}, err
	}
	if closing {
		o.store.SetStatus(req.SessionID, StatusCompleting)
	}

	reply, err := o.complete(ctx, feature, req, AssembleMessages(system, snap.History, req.Text))
	if err != nil {
		if created {
			o.store.Purge(req.SessionID, PurgeAborted)
		} else if closing {
			o.store.SetStatus(req.SessionID, snap.Status)
		}
		return TurnResult{}, err
	}

	count := o.store.Append(req.SessionID, req.Text, reply)
	status := StatusActive
	if count >= o.ceiling {
		status = StatusCompleted
	}
	o.store.SetStatus(req.SessionID, status)
	if status == StatusCompleted && o.purgeAtCeiling {
		o.store.Purge(req.SessionID, PurgeCeiling)
	}

	if o.metrics != nil {
		o.metrics.RecordTurn(ctx, string(feature), string(status))
	}
	return TurnResult{Reply: reply, TurnCount: count, Status: status, Closing: closing}, nil
}

// complete issues exactly one chat completion. It never retries.
func (o *Orchestrator) complete(ctx context.Context, feature Feature, req TurnRequest, msgs []llm.Message) (string, error) {
	p := o.params.Apply(req.Overrides)
	if limit := o.llm.Capabilities().MaxOutputTokens; limit > 0 && p.MaxTokens > limit {
		p.MaxTokens = limit
	}
	start := time.Now()
	resp, err := o.llm.Complete(ctx, llm.CompletionRequest{
		Messages:    msgs,
		Temperature: llm.Float(p.Temperature),
		TopP:        llm.Float(p.TopP),
		MaxTokens:   p.MaxTokens,
	})
	logLLMCall(ctx, o.providerName, string(feature), req.SessionID, start, err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp == nil {
		return "", ErrEmptyReply
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func logLLMCall(ctx context.Context, provider, feature, sessionID string, start time.Time, err error) {
	ctx = observe.WithLogAttrs(ctx, slog.String("feature", feature), slog.String("session_id", sessionID))
	attrs := []any{slog.Duration("latency", time.Since(start))}
	if provider != "" {
		attrs = append(attrs, slog.String("provider", provider))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	observe.Logger(ctx).Info("llm call done", attrs...)
}

package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/greeni/internal/observe"
	"github.com/MrWong99/greeni/pkg/provider/llm"
)

// EndResult is the outcome of [Lifecycle.End].
type EndResult struct {
	TurnCount int
	// Status is [StatusEnded] or [StatusCompleted].
	Status Status
}

// SummaryResult is the outcome of [Lifecycle.Summarize].
type SummaryResult struct {
	TurnCount int
	Summary   string
	Emotion   EmotionScore
	// Decoded is false when the model output could not be decoded and the
	// raw text was used as the summary.
	Decoded bool
}

// Lifecycle ends sessions and summarizes completed ones.
type Lifecycle struct {
	store        *Store
	llm          llm.Provider
	params       GenerationParams
	providerName string
}

// LifecycleOption configures a [Lifecycle].
type LifecycleOption func(*Lifecycle)

// WithSummaryParams sets the sampling settings of the summarization call.
func WithSummaryParams(p GenerationParams) LifecycleOption {
	return func(l *Lifecycle) { l.params = p }
}

// WithSummaryProviderName labels the "llm call done" log line.
func WithSummaryProviderName(name string) LifecycleOption {
	return func(l *Lifecycle) { l.providerName = name }
}

// NewLifecycle creates a [Lifecycle] over store. provider may be nil when
// summarization is never used.
func NewLifecycle(store *Store, provider llm.Provider, opts ...LifecycleOption) (*Lifecycle, error) {
	if store == nil {
		return nil, errors.New("dialogue: store must not be nil")
	}
	l := &Lifecycle{
		store:  store,
		llm:    provider,
		params: GenerationParams{Temperature: 0.3, TopP: 1.0, MaxTokens: 512},
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// End closes a session. An asserted status of [StatusCompleted] means the
// caller is moving on to summarization: the session is left intact and its
// stored turn count and status are returned, so a session that is still
// active reports [StatusActive] and a missing one reports [StatusEnded].
// Any other assertion purges the session and returns [StatusEnded]. Ending
// a missing or already-ended session succeeds.
func (l *Lifecycle) End(ctx context.Context, sessionID string, asserted Status) (EndResult, error) {
	unlock, err := l.store.Lock(ctx, sessionID)
	if err != nil {
		return EndResult{}, fmt.Errorf("dialogue: wait for session %q: %w", sessionID, err)
	}
	defer unlock()

	snap, ok := l.store.Get(sessionID)
	if asserted == StatusCompleted {
		if !ok {
			return EndResult{Status: StatusEnded}, nil
		}
		return EndResult{TurnCount: snap.TurnCount, Status: snap.Status}, nil
	}
	l.store.Purge(sessionID, PurgeEnded)
	return EndResult{TurnCount: snap.TurnCount, Status: StatusEnded}, nil
}

// Summarize condenses the stored transcript into a summary and an emotion
// label, then purges the session. A session without history yields
// [ErrSessionNotFound]. If the completion call fails or answers with blank
// text the history is kept so the caller can try again; any other reply
// purges the session whether or not it decodes.
func (l *Lifecycle) Summarize(ctx context.Context, sessionID string) (SummaryResult, error) {
	if l.llm == nil {
		return SummaryResult{}, errors.New("dialogue: summarization is not configured")
	}
	unlock, err := l.store.Lock(ctx, sessionID)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("dialogue: wait for session %q: %w", sessionID, err)
	}
	defer unlock()

	snap, ok := l.store.Get(sessionID)
	if !ok || len(snap.History) == 0 {
		return SummaryResult{}, ErrSessionNotFound
	}

	start := time.Now()
	resp, err := l.llm.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: summarySystemPrompt},
			{Role: llm.RoleUser, Content: FormatTranscript(snap.History)},
		},
		Temperature: llm.Float(l.params.Temperature),
		TopP:        llm.Float(l.params.TopP),
		MaxTokens:   l.params.MaxTokens,
		JSONMode:    true,
	})
	logLLMCall(ctx, l.providerName, "diary_summary", sessionID, start, err)
	if err != nil {
		return SummaryResult{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return SummaryResult{}, ErrEmptyReply
	}
	defer l.store.Purge(sessionID, PurgeSummarized)

	raw := resp.Content
	parsed, derr := DecodeSummary(raw)
	decoded := derr == nil
	if !decoded {
		observe.Logger(ctx).Warn("summary output not decodable, using raw text",
			"session_id", sessionID, "error", derr)
		parsed = FallbackSummary(raw)
	}

	return SummaryResult{
		TurnCount: snap.TurnCount,
		Summary:   parsed.Summary,
		Emotion:   parsed.Emotion,
		Decoded:   decoded,
	}, nil
}

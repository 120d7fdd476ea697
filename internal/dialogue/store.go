// Package dialogue implements the turn-budgeted conversation state machine
// behind the role-play and diary features.
//
// A [Store] holds volatile per-session history. The [Orchestrator] runs one
// child/assistant exchange at a time per session and decides when the
// session reaches its turn ceiling. [Lifecycle] ends sessions and turns a
// finished diary into a summary with an emotion label.
//
// All exported types are safe for concurrent use.
package dialogue

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/greeni/internal/observe"
)

// Speaker identifies who produced an [Utterance].
type Speaker string

const (
	SpeakerChild     Speaker = "child"
	SpeakerAssistant Speaker = "assistant"
)

// Utterance is one entry of a session transcript.
type Utterance struct {
	Speaker Speaker
	Text    string
}

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusActive accepts further turns.
	StatusActive Status = "active"

	// StatusCompleting marks a session whose closing turn is in flight. It is
	// never returned to clients.
	StatusCompleting Status = "completing"

	// StatusCompleted means the turn ceiling was reached. History is kept
	// for summarization.
	StatusCompleted Status = "completed"

	// StatusEnded means the session was explicitly closed and purged.
	StatusEnded Status = "ended"
)

// ParseStatus validates a caller-supplied status. Only the statuses a client
// may observe are accepted.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusActive, StatusCompleted, StatusEnded:
		return st, true
	}
	return "", false
}

// PurgeReason labels why a session was removed.
type PurgeReason string

const (
	PurgeEnded      PurgeReason = "ended"
	PurgeSummarized PurgeReason = "summarized"
	PurgeCeiling    PurgeReason = "ceiling"
	PurgeIdle       PurgeReason = "idle"
	PurgeAborted    PurgeReason = "aborted"
)

// Snapshot is a copy of one session's state. Mutating it does not affect the
// store.
type Snapshot struct {
	ID        string
	History   []Utterance
	TurnCount int
	Status    Status
	UpdatedAt time.Time
}

type session struct {
	history   []Utterance
	turnCount int
	status    Status
	updatedAt time.Time
}

func (s *session) snapshot(id string) Snapshot {
	h := make([]Utterance, len(s.history))
	copy(h, s.history)
	return Snapshot{ID: id, History: h, TurnCount: s.turnCount, Status: s.status, UpdatedAt: s.updatedAt}
}

// keyLock is a per-session mutex that honours context cancellation. refs
// counts holders and waiters so the entry can be dropped when unused.
type keyLock struct {
	ch   chan struct{}
	refs int
}

// Store maps session ids to transcripts. It owns every session entry; only
// the [Orchestrator], [Lifecycle], and [Sweeper] mutate it.
type Store struct {
	feature Feature
	metrics *observe.Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	locks    map[string]*keyLock
}

// StoreOption configures a [Store].
type StoreOption func(*Store)

// WithStoreMetrics records session gauges and purge counters on m.
func WithStoreMetrics(m *observe.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store for one feature. Session ids are scoped to
// the store, so role-play and diary sessions never collide.
func NewStore(feature Feature, opts ...StoreOption) *Store {
	s := &Store{
		feature:  feature,
		now:      time.Now,
		sessions: make(map[string]*session),
		locks:    make(map[string]*keyLock),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Feature returns the feature the store serves.
func (s *Store) Feature() Feature { return s.feature }

// ── Per-session serialization ────────────────────────────────────────────────

// Lock acquires the exclusive lock for id, waiting until the current holder
// releases it or ctx is done. The returned func releases the lock and must be
// called exactly once.
func (s *Store) Lock(ctx context.Context, id string) (unlock func(), err error) {
	s.mu.Lock()
	kl := s.locks[id]
	if kl == nil {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[id] = kl
	}
	kl.refs++
	s.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return s.unlocker(id, kl), nil
	case <-ctx.Done():
		s.release(id, kl)
		return nil, ctx.Err()
	}
}

// TryLock acquires the lock for id only if nobody holds it.
func (s *Store) TryLock(id string) (unlock func(), ok bool) {
	s.mu.Lock()
	kl := s.locks[id]
	if kl == nil {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		s.locks[id] = kl
	}
	kl.refs++
	s.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return s.unlocker(id, kl), true
	default:
		s.release(id, kl)
		return nil, false
	}
}

func (s *Store) unlocker(id string, kl *keyLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			s.release(id, kl)
		})
	}
}

func (s *Store) release(id string, kl *keyLock) {
	s.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()
}

// ── Session access ───────────────────────────────────────────────────────────

// GetOrCreate returns the session for id, creating an empty active session
// if none exists. created reports whether this call created it.
func (s *Store) GetOrCreate(id string) (snap Snapshot, created bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{status: StatusActive, updatedAt: s.now()}
		s.sessions[id] = sess
	}
	snap = sess.snapshot(id)
	s.mu.Unlock()

	if !ok && s.metrics != nil {
		s.metrics.SessionOpened(context.Background(), string(s.feature))
	}
	return snap, !ok
}

// Get returns the session for id without creating it.
func (s *Store) Get(id string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, false
	}
	return sess.snapshot(id), true
}

// Append adds one child/assistant pair and returns the new turn count. Both
// entries become visible together. Appending to a missing id creates it.
func (s *Store) Append(id, child, assistant string) int {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{status: StatusActive}
		s.sessions[id] = sess
	}
	sess.history = append(sess.history,
		Utterance{Speaker: SpeakerChild, Text: child},
		Utterance{Speaker: SpeakerAssistant, Text: assistant},
	)
	sess.turnCount++
	sess.updatedAt = s.now()
	n := sess.turnCount
	s.mu.Unlock()

	if !ok && s.metrics != nil {
		s.metrics.SessionOpened(context.Background(), string(s.feature))
	}
	return n
}

// SetStatus updates the status of an existing session. It is a no-op for a
// missing id.
func (s *Store) SetStatus(id string, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.status = st
	}
}

// TurnCount returns the number of completed exchanges, or zero for a missing id.
func (s *Store) TurnCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.turnCount
	}
	return 0
}

// Exists reports whether id has state in the store.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Purge removes all state for id and reports whether anything was removed.
// Purging a missing id is a no-op.
func (s *Store) Purge(id string, reason PurgeReason) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok && s.metrics != nil {
		ctx := context.Background()
		s.metrics.SessionClosed(ctx, string(s.feature))
		s.metrics.RecordPurge(ctx, string(s.feature), string(reason))
	}
	return ok
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// PurgeIdle removes sessions not updated since cutoff. Sessions with a turn
// in flight are skipped and picked up by a later sweep.
func (s *Store) PurgeIdle(cutoff time.Time) []string {
	s.mu.Lock()
	var candidates []string
	for id, sess := range s.sessions {
		if sess.updatedAt.Before(cutoff) {
			candidates = append(candidates, id)
		}
	}
	s.mu.Unlock()

	var purged []string
	for _, id := range candidates {
		unlock, ok := s.TryLock(id)
		if !ok {
			continue
		}
		if snap, exists := s.Get(id); exists && snap.UpdatedAt.Before(cutoff) {
			if s.Purge(id, PurgeIdle) {
				purged = append(purged, id)
			}
		}
		unlock()
	}
	return purged
}

// Package mock provides a test double for the storage.Store interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/greeni/internal/storage"
)

// PutCall records a single invocation of Put.
type PutCall struct {
	Key         string
	ContentType string
	Data        []byte
}

// Store is a mock implementation of storage.Store.
type Store struct {
	mu sync.Mutex

	// BaseURL is prefixed to the key to form the returned URL.
	BaseURL string

	// Err, if non-nil, is returned by every Put.
	Err error

	// PutCalls records every call to Put.
	PutCalls []PutCall
}

// Put records the call and returns BaseURL + "/" + key.
func (s *Store) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutCalls = append(s.PutCalls, PutCall{Key: key, ContentType: contentType, Data: append([]byte(nil), data...)})
	if s.Err != nil {
		return "", s.Err
	}
	return s.BaseURL + "/" + key, nil
}

// Calls returns a snapshot of the recorded Put calls. Thread-safe.
func (s *Store) Calls() []PutCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PutCall, len(s.PutCalls))
	copy(out, s.PutCalls)
	return out
}

var _ storage.Store = (*Store)(nil)

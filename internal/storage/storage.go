// Package storage defines the object store used to publish audio clips.
//
// Synthesized speech and, on request, uploaded recordings are written under
// a generated key and handed back to clients as a URL. Implementations live
// in sub-packages (s3store); the mock sub-package records uploads for tests.
package storage

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store uploads objects and returns a URL clients can fetch them from.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes data under key and returns its URL. key uses forward slashes.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Key prefixes for the clip kinds the server stores.
const (
	PrefixTTS = "tts"
	PrefixSTT = "stt"
)

// NewKey returns a fresh object key of the form "<prefix>/<uuid><ext>".
// ext should include the leading dot.
func NewKey(prefix, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, uuid.NewString()+ext)
}

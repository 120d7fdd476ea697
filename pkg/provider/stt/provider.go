// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider turns one complete audio clip (a child's recorded utterance)
// into text. The companion never streams audio, so the contract is a single
// blocking call per clip.
//
// Implementations must be safe for concurrent use and must not retry on their
// own; callers wrap them in a bounded retry policy.
package stt

import (
	"context"
	"path/filepath"
	"strings"
)

// Audio is one recorded clip submitted for transcription.
type Audio struct {
	// Data is the encoded audio file content.
	Data []byte

	// Filename is the original file name. Its extension is used by backends
	// to infer the container format.
	Filename string

	// ContentType is the MIME type reported by the client, if any.
	ContentType string

	// Language is an ISO-639-1 hint such as "ko". Empty lets the backend
	// auto-detect.
	Language string
}

// Ext returns the lower-cased extension of Filename without the leading dot.
func (a Audio) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(a.Filename)), ".")
}

// Transcript is the recognised text of a clip.
type Transcript struct {
	// Text is the recognised text, trimmed of surrounding whitespace.
	Text string

	// Language is the language the backend detected or was told to use.
	Language string
}

// Provider is the abstraction over any batch STT backend.
type Provider interface {
	// Transcribe recognises the speech in audio. It returns an error if the
	// backend rejects the request or ctx is cancelled first.
	Transcribe(ctx context.Context, audio Audio) (Transcript, error)
}

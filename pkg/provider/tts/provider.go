// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider turns one reply text into one encoded audio clip (MP3 by
// default) suitable for playback in the client app or upload to object
// storage.
//
// Implementations must be safe for concurrent use and must not retry on their
// own; callers wrap them in a bounded retry policy.
package tts

import "context"

// Speed bounds accepted by [Request.Speed].
const (
	MinSpeed     = 0.5
	MaxSpeed     = 2.0
	DefaultSpeed = 1.0
)

// Request describes one synthesis call.
type Request struct {
	// Text is the text to synthesise. Must be non-empty.
	Text string

	// Voice is a provider-specific voice ID or speaker name. Empty selects the
	// provider default.
	Voice string

	// Speed is a playback speed multiplier in [MinSpeed, MaxSpeed]. Zero means
	// DefaultSpeed.
	Speed float64
}

// Audio is a synthesised clip.
type Audio struct {
	// Data is the encoded audio.
	Data []byte

	// ContentType is the MIME type of Data, e.g. "audio/mpeg".
	ContentType string
}

// Ext returns the conventional file extension for the clip's content type.
func (a *Audio) Ext() string {
	switch a.ContentType {
	case "audio/mpeg":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/ogg":
		return "ogg"
	default:
		return "bin"
	}
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders req into audio. Returns an error if the backend
	// rejects the request or ctx is cancelled first.
	Synthesize(ctx context.Context, req Request) (*Audio, error)
}

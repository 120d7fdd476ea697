// Package speech implements the transcription and synthesis use cases: format
// normalisation before speech-to-text, speed validation before synthesis, and
// optional upload of the resulting clips to object storage.
package speech

import "strings"

// directExts are containers the STT backends accept without transcoding.
var directExts = map[string]bool{
	"mp3": true, "mp4": true, "mpeg": true, "mpga": true, "m4a": true,
	"wav": true, "webm": true, "ogg": true, "oga": true, "flac": true,
}

// Supported reports whether ext (without the dot, any case) can be sent to
// the STT backend as is.
func Supported(ext string) bool {
	return directExts[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// contentTypes maps extensions to the MIME type used when storing a clip.
var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"mpeg": "audio/mpeg",
	"mpga": "audio/mpeg",
	"mp4":  "audio/mp4",
	"m4a":  "audio/mp4",
	"wav":  "audio/wav",
	"webm": "audio/webm",
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"flac": "audio/flac",
}

// ContentTypeFor returns the MIME type for ext, or application/octet-stream.
func ContentTypeFor(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return ct
	}
	return "application/octet-stream"
}

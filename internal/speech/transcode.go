package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Transcoder converts a clip into a format the STT backend accepts.
type Transcoder interface {
	// Transcode converts data (in the container named by ext) to MP3.
	Transcode(ctx context.Context, data []byte, ext string) ([]byte, error)
}

// FFmpeg is a [Transcoder] that shells out to the ffmpeg binary.
type FFmpeg struct {
	// Path is the ffmpeg executable. Empty means "ffmpeg" on $PATH.
	Path string
}

var _ Transcoder = (*FFmpeg)(nil)

// Transcode writes data to a temp dir and runs
// ffmpeg -y -i in -vn -ar 16000 -ac 1 -b:a 64k out.mp3.
func (f *FFmpeg) Transcode(ctx context.Context, data []byte, ext string) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("speech: transcode: empty input")
	}
	dir, err := os.MkdirTemp("", "greeni-ffmpeg-")
	if err != nil {
		return nil, fmt.Errorf("speech: transcode: %w", err)
	}
	defer os.RemoveAll(dir)

	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "bin"
	}
	in := filepath.Join(dir, "in."+ext)
	out := filepath.Join(dir, "out.mp3")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("speech: transcode: %w", err)
	}

	path := f.Path
	if path == "" {
		path = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, path,
		"-y", "-i", in, "-vn", "-ar", "16000", "-ac", "1", "-b:a", "64k", out)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("speech: ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}

	mp3, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("speech: transcode output: %w", err)
	}
	return mp3, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

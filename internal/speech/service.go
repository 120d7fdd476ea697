package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/MrWong99/greeni/internal/observe"
	"github.com/MrWong99/greeni/internal/storage"
	"github.com/MrWong99/greeni/pkg/provider/stt"
	"github.com/MrWong99/greeni/pkg/provider/tts"
)

// Sentinel errors. Upstream and storage failures wrap the provider error.
var (
	ErrSTTDisabled  = errors.New("speech: speech-to-text is not configured")
	ErrTTSDisabled  = errors.New("speech: text-to-speech is not configured")
	ErrEmptyAudio   = errors.New("speech: audio is empty")
	ErrEmptyText    = errors.New("speech: text is empty")
	ErrSpeedRange   = fmt.Errorf("speech: speed must be within [%.1f, %.1f]", tts.MinSpeed, tts.MaxSpeed)
	ErrSTTUpstream  = errors.New("speech: transcription failed")
	ErrTTSUpstream  = errors.New("speech: synthesis failed")
	ErrStoreFailure = errors.New("speech: storing audio failed")
)

// Service runs transcription and synthesis requests.
type Service struct {
	stt          stt.Provider
	tts          tts.Provider
	store        storage.Store
	transcoder   Transcoder
	language     string
	defaultVoice string
}

// Option configures a [Service].
type Option func(*Service)

// WithSTT sets the transcription backend.
func WithSTT(p stt.Provider) Option { return func(s *Service) { s.stt = p } }

// WithTTS sets the synthesis backend.
func WithTTS(p tts.Provider) Option { return func(s *Service) { s.tts = p } }

// WithStore enables uploads. A nil store leaves uploads disabled.
func WithStore(st storage.Store) Option { return func(s *Service) { s.store = st } }

// WithTranscoder enables conversion of unsupported containers. Nil disables it.
func WithTranscoder(t Transcoder) Option { return func(s *Service) { s.transcoder = t } }

// WithLanguage sets the STT language hint.
func WithLanguage(lang string) Option { return func(s *Service) { s.language = lang } }

// WithDefaultVoice sets the voice used when a request names none.
func WithDefaultVoice(v string) Option { return func(s *Service) { s.defaultVoice = v } }

// New returns a [Service]. Backends left unset make the matching operation
// return ErrSTTDisabled or ErrTTSDisabled.
func New(opts ...Option) *Service {
	s := &Service{language: "ko"}
	for _, o := range opts {
		o(s)
	}
	return s
}

// STTEnabled reports whether a transcription backend is configured.
func (s *Service) STTEnabled() bool { return s.stt != nil }

// TTSEnabled reports whether a synthesis backend is configured.
func (s *Service) TTSEnabled() bool { return s.tts != nil }

// StorageEnabled reports whether clips are uploaded.
func (s *Service) StorageEnabled() bool { return s.store != nil }

// ── Transcribe ───────────────────────────────────────────────────────────────

// TranscribeRequest is one uploaded clip.
type TranscribeRequest struct {
	Data        []byte
	Filename    string
	ContentType string

	// StoreAudio uploads the submitted clip when storage is configured.
	StoreAudio bool
}

// TranscribeResult is the recognised text and, if stored, the clip URL.
type TranscribeResult struct {
	Text     string
	AudioURL string
}

// Transcribe normalises the clip's format and sends it to the STT backend.
// Transcoding is best effort: on failure the original bytes are submitted.
func (s *Service) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResult, error) {
	if s.stt == nil {
		return TranscribeResult{}, ErrSTTDisabled
	}
	if len(req.Data) == 0 {
		return TranscribeResult{}, ErrEmptyAudio
	}

	audio := stt.Audio{
		Data:        req.Data,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Language:    s.language,
	}
	if audio.Filename == "" {
		audio.Filename = "audio.bin"
	}
	ext := audio.Ext()

	if !Supported(ext) && s.transcoder != nil {
		mp3, err := s.transcoder.Transcode(ctx, audio.Data, ext)
		if err != nil {
			observe.Logger(ctx).Warn("transcode failed, submitting raw audio", "ext", ext, "err", err)
		} else {
			audio.Data = mp3
			audio.Filename = strings.TrimSuffix(audio.Filename, filepath.Ext(audio.Filename)) + ".mp3"
			audio.ContentType = "audio/mpeg"
			ext = "mp3"
		}
	}

	tr, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		return TranscribeResult{}, fmt.Errorf("%w: %w", ErrSTTUpstream, err)
	}
	res := TranscribeResult{Text: strings.TrimSpace(tr.Text)}

	if req.StoreAudio && s.store != nil {
		url, err := s.store.Put(ctx, storage.NewKey(storage.PrefixSTT, "."+ext), ContentTypeFor(ext), audio.Data)
		if err != nil {
			return TranscribeResult{}, fmt.Errorf("%w: %w", ErrStoreFailure, err)
		}
		res.AudioURL = url
	}
	return res, nil
}

// ── Speak ────────────────────────────────────────────────────────────────────

// SpeakRequest is one synthesis request. Zero Speed means [tts.DefaultSpeed].
type SpeakRequest struct {
	Text  string
	Voice string
	Speed float64
}

// SpeakResult carries either an uploaded clip URL or the raw audio when
// storage is disabled.
type SpeakResult struct {
	AudioURL string
	Audio    *tts.Audio
}

// Speak synthesises req.Text and uploads the clip when storage is configured.
func (s *Service) Speak(ctx context.Context, req SpeakRequest) (SpeakResult, error) {
	if s.tts == nil {
		return SpeakResult{}, ErrTTSDisabled
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return SpeakResult{}, ErrEmptyText
	}
	speed := req.Speed
	if speed == 0 {
		speed = tts.DefaultSpeed
	}
	if math.IsNaN(speed) || speed < tts.MinSpeed || speed > tts.MaxSpeed {
		return SpeakResult{}, ErrSpeedRange
	}
	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		voice = s.defaultVoice
	}

	audio, err := s.tts.Synthesize(ctx, tts.Request{Text: text, Voice: voice, Speed: speed})
	if err != nil {
		return SpeakResult{}, fmt.Errorf("%w: %w", ErrTTSUpstream, err)
	}
	if audio == nil || len(audio.Data) == 0 {
		return SpeakResult{}, fmt.Errorf("%w: empty audio", ErrTTSUpstream)
	}

	if s.store == nil {
		return SpeakResult{Audio: audio}, nil
	}
	url, err := s.store.Put(ctx, storage.NewKey(storage.PrefixTTS, "."+audio.Ext()), audio.ContentType, audio.Data)
	if err != nil {
		return SpeakResult{}, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return SpeakResult{AudioURL: url}, nil
}

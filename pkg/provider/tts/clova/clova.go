// Package clova provides a TTS provider backed by the NAVER CLOVA Voice
// premium API, which renders natural Korean children's-content voices.
//
// Usage:
//
//	p, err := clova.New(keyID, key, clova.WithSpeaker("ngaram"))
//	audio, err := p.Synthesize(ctx, tts.Request{Text: "안녕!"})
package clova

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/greeni/pkg/provider"
	"github.com/MrWong99/greeni/pkg/provider/tts"
)

const (
	defaultEndpoint = "https://naveropenapi.apigw.ntruss.com/tts-premium/v1/tts"
	defaultSpeaker  = "ngaram"
	defaultPitch    = 1
	defaultTimeout  = 20 * time.Second
)

// Compile-time assertion that Provider implements tts.Provider.
var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring the CLOVA Provider.
type Option func(*Provider)

// WithEndpoint overrides the synthesis endpoint URL.
func WithEndpoint(u string) Option {
	return func(p *Provider) {
		p.endpoint = u
	}
}

// WithSpeaker sets the default speaker used when a request names none.
func WithSpeaker(speaker string) Option {
	return func(p *Provider) {
		p.speaker = speaker
	}
}

// WithPitch sets the pitch option in [-5, 5]. Defaults to 1.
func WithPitch(pitch int) Option {
	return func(p *Provider) {
		p.pitch = pitch
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 20s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements tts.Provider backed by CLOVA Voice.
type Provider struct {
	keyID      string
	key        string
	endpoint   string
	speaker    string
	pitch      int
	httpClient *http.Client
}

// New creates a new CLOVA Provider. Both API key parts must be non-empty.
func New(keyID, key string, opts ...Option) (*Provider, error) {
	if keyID == "" || key == "" {
		return nil, errors.New("clova: API key ID and key must not be empty")
	}
	p := &Provider{
		keyID:      keyID,
		key:        key,
		endpoint:   defaultEndpoint,
		speaker:    defaultSpeaker,
		pitch:      defaultPitch,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Synthesize implements tts.Provider. The result is always MP3.
func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (*tts.Audio, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("clova: text must not be empty")
	}
	speaker := req.Voice
	if speaker == "" {
		speaker = p.speaker
	}

	form := url.Values{}
	form.Set("speaker", speaker)
	form.Set("text", req.Text)
	form.Set("format", "mp3")
	form.Set("pitch", strconv.Itoa(p.pitch))
	form.Set("volume", "0")
	form.Set("speed", strconv.Itoa(speedOption(req.Speed)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("clova: create request: %w", err)
	}
	httpReq.Header.Set("X-NCP-APIGW-API-KEY-ID", p.keyID)
	httpReq.Header.Set("X-NCP-APIGW-API-KEY", p.key)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("clova: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clova: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clova: %w", &provider.StatusError{
			Service:    "clova",
			StatusCode: resp.StatusCode,
			Message:    provider.BodyExcerpt(body),
		})
	}
	if len(body) == 0 {
		return nil, errors.New("clova: empty audio response")
	}

	return &tts.Audio{Data: body, ContentType: "audio/mpeg"}, nil
}

// speedOption maps a playback multiplier in [0.5, 2.0] onto CLOVA's integer
// speed scale [-5, 5], where negative values play faster.
func speedOption(mult float64) int {
	if mult == 0 {
		mult = tts.DefaultSpeed
	}
	opt := int(math.Round((1.0 - mult) * 5))
	return max(-5, min(5, opt))
}

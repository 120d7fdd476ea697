package clova

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrWong99/greeni/pkg/provider"
	"github.com/MrWong99/greeni/pkg/provider/tts"
)

func TestNew_RequiresKeys(t *testing.T) {
	if _, err := New("", "secret"); err == nil {
		t.Error("expected error for empty key ID")
	}
	if _, err := New("id", ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestSpeedOption(t *testing.T) {
	tests := []struct {
		mult float64
		want int
	}{
		{0, 0},
		{1.0, 0},
		{0.5, 3},
		{2.0, -5},
		{1.2, -1},
		{-1.0, 5},
		{3.0, -5},
	}
	for _, tt := range tests {
		if got := speedOption(tt.mult); got != tt.want {
			t.Errorf("speedOption(%v) = %d, want %d", tt.mult, got, tt.want)
		}
	}
}

func TestSynthesize_SendsForm(t *testing.T) {
	var form map[string]string
	var keyID, key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyID = r.Header.Get("X-NCP-APIGW-API-KEY-ID")
		key = r.Header.Get("X-NCP-APIGW-API-KEY")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake"))
	}))
	defer srv.Close()

	p, err := New("id", "secret", WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	audio, err := p.Synthesize(context.Background(), tts.Request{Text: "안녕, 친구야!", Speed: 1.0})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio.Data) != "ID3fake" || audio.ContentType != "audio/mpeg" {
		t.Errorf("unexpected audio %+v", audio)
	}
	if keyID != "id" || key != "secret" {
		t.Errorf("auth headers = %q/%q", keyID, key)
	}
	want := map[string]string{
		"speaker": "ngaram",
		"text":    "안녕, 친구야!",
		"format":  "mp3",
		"pitch":   "1",
		"volume":  "0",
		"speed":   "0",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("form[%q] = %q, want %q", k, form[k], v)
		}
	}
}

func TestSynthesize_VoiceOverride(t *testing.T) {
	var speaker string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		speaker = r.PostForm.Get("speaker")
		_, _ = w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	p, _ := New("id", "secret", WithEndpoint(srv.URL))
	if _, err := p.Synthesize(context.Background(), tts.Request{Text: "hi", Voice: "nara"}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if speaker != "nara" {
		t.Errorf("speaker = %q, want nara", speaker)
	}
}

func TestSynthesize_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"x"}`, tt.status)
		}))
		p, _ := New("id", "secret", WithEndpoint(srv.URL))
		_, err := p.Synthesize(context.Background(), tts.Request{Text: "hi"})
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if got := provider.Retryable(err); got != tt.retryable {
			t.Errorf("status %d: Retryable = %v, want %v", tt.status, got, tt.retryable)
		}
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	p, _ := New("id", "secret")
	if _, err := p.Synthesize(context.Background(), tts.Request{Text: "   "}); err == nil {
		t.Fatal("expected error for empty text")
	}
}

package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/greeni/pkg/provider/llm"
	llmmock "github.com/MrWong99/greeni/pkg/provider/llm/mock"
	"github.com/MrWong99/greeni/pkg/provider/stt"
	sttmock "github.com/MrWong99/greeni/pkg/provider/stt/mock"
	"github.com/MrWong99/greeni/pkg/provider/tts"
	ttsmock "github.com/MrWong99/greeni/pkg/provider/tts/mock"
)

func TestWrapLLM_RecordsRequestAndSpan(t *testing.T) {
	f := newTelemetryFixture(t)
	m, reader, exp := f.metrics, f.reader, f.spans
	inner := &llmmock.Provider{
		CompleteResponse:  &llm.CompletionResponse{Content: "안녕", Usage: llm.Usage{TotalTokens: 9}},
		ModelCapabilities: llm.ModelCapabilities{MaxOutputTokens: 123},
	}
	w := WrapLLM(inner, "openai", m)

	resp, err := w.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	if err != nil || resp.Content != "안녕" {
		t.Fatalf("Complete = %+v, %v", resp, err)
	}
	if got := w.Capabilities().MaxOutputTokens; got != 123 {
		t.Errorf("Capabilities not delegated: %d", got)
	}

	rm := collect(t, reader)
	if v, ok := sumWhere(t, rm, "greeni.provider.requests", "status", "ok"); !ok || v != 1 {
		t.Errorf("ok requests = %d (found=%v), want 1", v, ok)
	}
	spans := exp.GetSpans()
	if len(spans) != 1 || spans[0].Name != "llm.complete" {
		t.Fatalf("spans = %v, want one llm.complete", spans)
	}
}

func TestWrapSTT_RecordsError(t *testing.T) {
	f := newTelemetryFixture(t)
	m, reader := f.metrics, f.reader
	w := WrapSTT(&sttmock.Provider{Err: errors.New("boom")}, "whisper", m)

	if _, err := w.Transcribe(context.Background(), stt.Audio{Data: []byte("x")}); err == nil {
		t.Fatal("expected error to pass through")
	}

	rm := collect(t, reader)
	if v, ok := sumWhere(t, rm, "greeni.provider.errors", "provider", "whisper"); !ok || v != 1 {
		t.Errorf("whisper errors = %d (found=%v), want 1", v, ok)
	}
}

func TestWrapTTS_PassesAudioThrough(t *testing.T) {
	m := newTelemetryFixture(t).metrics
	want := &tts.Audio{Data: []byte("mp3"), ContentType: "audio/mpeg"}
	w := WrapTTS(&ttsmock.Provider{Result: want}, "clova", m)

	got, err := w.Synthesize(context.Background(), tts.Request{Text: "안녕"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got != want {
		t.Errorf("audio not passed through")
	}
}

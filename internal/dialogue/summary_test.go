package dialogue

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeSummary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		raw        string
		summary    string
		primary    Emotion
		confidence float64
	}{
		{
			name:       "well formed",
			raw:        `{"summary": "놀이터에서 친구와 놀았어요.", "emotion": {"primary": "happy", "confidence": 0.9}}`,
			summary:    "놀이터에서 친구와 놀았어요.",
			primary:    EmotionHappy,
			confidence: 0.9,
		},
		{
			name:       "code fence and prose",
			raw:        "결과입니다:\n```json\n{\"summary\": \"비가 와서 슬펐어요.\", \"emotion\": {\"primary\": \"SAD\", \"confidence\": 0.7}}\n```",
			summary:    "비가 와서 슬펐어요.",
			primary:    EmotionSad,
			confidence: 0.7,
		},
		{
			name:       "braces in trailing prose",
			raw:        "{\"summary\": \"동생과 블록을 쌓았어요.\", \"emotion\": {\"primary\": \"happy\", \"confidence\": 0.8}}\n(참고: {감정} 표시는 생략)",
			summary:    "동생과 블록을 쌓았어요.",
			primary:    EmotionHappy,
			confidence: 0.8,
		},
		{
			name:       "braces in leading prose",
			raw:        "형식 {summary, emotion}에 맞춘 결과: {\"summary\": \"숙제를 했어요.\", \"emotion\": {\"primary\": \"anxiety\", \"confidence\": 0.6}}",
			summary:    "숙제를 했어요.",
			primary:    EmotionAnxiety,
			confidence: 0.6,
		},
		{
			name:       "braces inside summary text",
			raw:        `{"summary": "그림에 {하트}와 \"별}\"을 그렸어요.", "emotion": {"primary": "surprised", "confidence": 0.3}}`,
			summary:    `그림에 {하트}와 "별}"을 그렸어요.`,
			primary:    EmotionSurprised,
			confidence: 0.3,
		},
		{
			name:       "unknown label",
			raw:        `{"summary": "s", "emotion": {"primary": "bored", "confidence": 0.4}}`,
			summary:    "s",
			primary:    DefaultEmotion,
			confidence: 0.4,
		},
		{
			name:       "confidence out of range",
			raw:        `{"summary": "s", "emotion": {"primary": "angry", "confidence": 1.7}}`,
			summary:    "s",
			primary:    EmotionAngry,
			confidence: NeutralConfidence,
		},
		{
			name:       "confidence as string",
			raw:        `{"summary": "s", "emotion": {"primary": "anxiety", "confidence": "high"}}`,
			summary:    "s",
			primary:    EmotionAnxiety,
			confidence: NeutralConfidence,
		},
		{
			name:       "emotion missing",
			raw:        `{"summary": "s"}`,
			summary:    "s",
			primary:    DefaultEmotion,
			confidence: NeutralConfidence,
		},
		{
			name:       "emotion as bare label",
			raw:        `{"summary": "s", "emotion": "surprised"}`,
			summary:    "s",
			primary:    EmotionSurprised,
			confidence: NeutralConfidence,
		},
		{
			name:       "primary not a string",
			raw:        `{"summary": "s", "emotion": {"primary": 3, "confidence": 0}}`,
			summary:    "s",
			primary:    DefaultEmotion,
			confidence: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSummary(tt.raw)
			if err != nil {
				t.Fatalf("DecodeSummary: %v", err)
			}
			if got.Summary != tt.summary {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.summary)
			}
			if got.Emotion.Primary != tt.primary {
				t.Errorf("Primary = %q, want %q", got.Emotion.Primary, tt.primary)
			}
			if got.Emotion.Confidence != tt.confidence {
				t.Errorf("Confidence = %v, want %v", got.Emotion.Confidence, tt.confidence)
			}
		})
	}
}

func TestDecodeSummary_Errors(t *testing.T) {
	t.Parallel()
	for name, raw := range map[string]string{
		"plain text":    "요약: 즐거운 하루였어요. 감정: happy",
		"malformed":     `{"summary": "s", "emotion": }`,
		"no summary":    `{"emotion": {"primary": "happy", "confidence": 0.5}}`,
		"blank summary": `{"summary": "   "}`,
		"summary type":  `{"summary": 42}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSummary(raw)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v, want *DecodeError", err)
			}
			if de.Raw != raw {
				t.Errorf("DecodeError.Raw = %q, want the input", de.Raw)
			}
		})
	}
}

func TestFallbackSummary(t *testing.T) {
	t.Parallel()
	got := FallbackSummary("  요약: 즐거운 하루였어요.\n")
	if got.Summary != "요약: 즐거운 하루였어요." {
		t.Errorf("Summary = %q, want raw text trimmed", got.Summary)
	}
	if got.Emotion.Primary != DefaultEmotion || got.Emotion.Confidence != NeutralConfidence {
		t.Errorf("Emotion = %+v, want defaults", got.Emotion)
	}
}

func TestFormatTranscript(t *testing.T) {
	t.Parallel()
	out := FormatTranscript([]Utterance{
		{Speaker: SpeakerChild, Text: "공룡을 봤어요"},
		{Speaker: SpeakerAssistant, Text: "어떤 공룡이었나요?"},
	})
	if !strings.Contains(out, "아이: 공룡을 봤어요\n") || !strings.Contains(out, "그리니: 어떤 공룡이었나요?\n") {
		t.Errorf("unexpected transcript:\n%s", out)
	}
	if strings.Index(out, "아이:") > strings.Index(out, "그리니:") {
		t.Error("transcript is not in chronological order")
	}
}

package dialogue

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
)

// Emotion is one of the closed set of labels a diary summary may carry.
type Emotion string

const (
	EmotionAngry     Emotion = "angry"
	EmotionHappy     Emotion = "happy"
	EmotionSad       Emotion = "sad"
	EmotionSurprised Emotion = "surprised"
	EmotionAnxiety   Emotion = "anxiety"
)

// Emotions lists every valid label.
var Emotions = []Emotion{EmotionAngry, EmotionHappy, EmotionSad, EmotionSurprised, EmotionAnxiety}

// Fallbacks used when the model output is missing or invalid.
const (
	DefaultEmotion    = EmotionHappy
	NeutralConfidence = 0.5
)

// ParseEmotion normalises s and reports whether it is a valid label.
func ParseEmotion(s string) (Emotion, bool) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Emotions {
		if e == v {
			return e, true
		}
	}
	return "", false
}

// EmotionScore is the classified primary emotion of a diary session.
type EmotionScore struct {
	Primary    Emotion
	Confidence float64
}

// ParsedSummary is the structured result of a summarization call.
type ParsedSummary struct {
	Summary string
	Emotion EmotionScore
}

// DecodeError reports model output that could not be read as a summary
// object. Raw holds the untouched output.
type DecodeError struct {
	Raw    string
	Reason string
}

// Error implements error.
func (e *DecodeError) Error() string {
	return "dialogue: decode summary: " + e.Reason
}

// DecodeSummary reads the model's structured output. The object may be
// wrapped in prose or a Markdown code fence. A usable summary string is
// required; an invalid emotion label or confidence is replaced by
// [DefaultEmotion] and [NeutralConfidence] without failing.
func DecodeSummary(raw string) (ParsedSummary, error) {
	obj, ok := extractObject(raw)
	if !ok {
		if strings.IndexByte(raw, '{') >= 0 {
			return ParsedSummary{}, &DecodeError{Raw: raw, Reason: "malformed JSON"}
		}
		return ParsedSummary{}, &DecodeError{Raw: raw, Reason: "no JSON object found"}
	}
	root := gjson.Parse(obj)

	sum := root.Get("summary")
	if sum.Type != gjson.String || strings.TrimSpace(sum.Str) == "" {
		return ParsedSummary{}, &DecodeError{Raw: raw, Reason: "missing summary"}
	}

	score := EmotionScore{Primary: DefaultEmotion, Confidence: NeutralConfidence}
	emo := root.Get("emotion")
	primary, confidence := emo.Get("primary"), emo.Get("confidence")
	if emo.Type == gjson.String {
		// {"emotion": "sad"} without a confidence.
		primary, confidence = emo, gjson.Result{}
	}
	if e, ok := ParseEmotion(primary.String()); ok && primary.Type == gjson.String {
		score.Primary = e
	}
	if confidence.Type == gjson.Number {
		if c := confidence.Float(); !math.IsNaN(c) && c >= 0 && c <= 1 {
			score.Confidence = c
		}
	}

	return ParsedSummary{Summary: strings.TrimSpace(sum.Str), Emotion: score}, nil
}

// FallbackSummary is the explicit recovery branch for a [DecodeError]: the raw
// output becomes the summary verbatim and the emotion takes its defaults.
func FallbackSummary(raw string) ParsedSummary {
	return ParsedSummary{
		Summary: strings.TrimSpace(raw),
		Emotion: EmotionScore{Primary: DefaultEmotion, Confidence: NeutralConfidence},
	}
}

// extractObject returns the first balanced {...} span of s that is valid
// JSON, preferring one with a "summary" key. Braces inside prose around the
// object, or inside its string values, do not end the scan early.
func extractObject(s string) (string, bool) {
	var first string
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if obj, ok := balancedObject(s[start:]); ok && gjson.Valid(obj) {
			if gjson.Get(obj, "summary").Exists() {
				return obj, true
			}
			if first == "" {
				first = obj
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return first, first != ""
}

// balancedObject returns the prefix of s, which starts with '{', up to its
// matching '}'.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// ── Summarization prompt ─────────────────────────────────────────────────────

const summarySystemPrompt = "다음은 아이와 나눈 일기 대화 기록입니다. " +
	"아이의 하루를 한 문단으로 따뜻하게 요약하고, 아이가 느낀 주요 감정을 하나만 고르세요. " +
	"반드시 아래 형식의 JSON 객체 하나만 출력하고, 다른 글은 쓰지 마세요.\n" +
	`{"summary": "<한 문단 요약>", "emotion": {"primary": "<angry|happy|sad|surprised|anxiety>", "confidence": <0과 1 사이의 숫자>}}`

// SummarySystemPrompt returns the instruction sent with a diary transcript.
func SummarySystemPrompt() string { return summarySystemPrompt }

// FormatTranscript serialises history into the single user message sent for
// summarization.
func FormatTranscript(history []Utterance) string {
	var b strings.Builder
	b.WriteString("대화 기록:\n")
	for _, u := range history {
		speaker := "아이"
		if u.Speaker == SpeakerAssistant {
			speaker = "그리니"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, u.Text)
	}
	return b.String()
}

package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/greeni/internal/observe"
	"github.com/MrWong99/greeni/pkg/provider/llm"
)

// ErrJudgeUpstream wraps failures of the judge LLM.
var ErrJudgeUpstream = errors.New("game: judge call failed")

const judgeSystem = "You are a strict evaluator."

// judgePrompt takes the answer as %[1]s and the utterance as %[2]s.
const judgePrompt = `아래는 어린이용 다섯고개 퀴즈입니다.

정답 단어: "%[1]s"
아이의 발화: "%[2]s"

판단 기준:
1) 아이가 정답을 명확히 언급하거나, 강하게 추측하는 표현이면 정답으로 처리합니다.
   - 예: "%[1]s인 것 같아", "%[1]s 아닐까?", "%[1]s이라고 생각해",
         "%[1]s 같아 보여", "%[1]s이지?", "%[1]s일 것 같아"

2) 아이가 확신이 없거나 모른다는 표현은 오답으로 처리합니다.
   - 예: "%[1]s인지 잘 모르겠어", "모르겠어", "비슷한데 모르겠어",
         "%[1]s는 아닌 것 같아"

3) 아이가 정답을 직접 말하지 않는 경우는 무조건 오답입니다.

4) 출력은 반드시 "True" 또는 "False"만 반환하세요.
   - 설명은 절대 포함하지 마세요.

아이의 발화는 정답을 맞춘 것으로 볼 수 있나요?`

// Judge grades five-questions answers with an LLM.
type Judge struct {
	llm       llm.Provider
	name      string
	maxTokens int
}

// NewJudge returns a [Judge] backed by p. name labels log lines.
func NewJudge(p llm.Provider, name string) (*Judge, error) {
	if p == nil {
		return nil, errors.New("game: judge llm must not be nil")
	}
	return &Judge{llm: p, name: name, maxTokens: 4}, nil
}

// CheckFiveQ asks the judge whether utterance names answer. Anything other
// than a "True" verdict counts as incorrect.
func (j *Judge) CheckFiveQ(ctx context.Context, utterance, answer string) (bool, error) {
	req := llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: judgeSystem},
			{Role: llm.RoleUser, Content: fmt.Sprintf(judgePrompt, strings.TrimSpace(answer), strings.TrimSpace(utterance))},
		},
		MaxTokens: j.maxTokens,
	}

	start := time.Now()
	resp, err := j.llm.Complete(ctx, req)
	observe.Logger(ctx).Info("llm call done",
		slog.String("feature", "fiveq"),
		slog.String("provider", j.name),
		slog.Duration("latency", time.Since(start)),
		slog.Bool("failed", err != nil),
	)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrJudgeUpstream, err)
	}
	if resp == nil {
		return false, nil
	}
	return parseVerdict(resp.Content), nil
}

func parseVerdict(s string) bool {
	return strings.EqualFold(strings.Trim(s, " \t\r\n.\"'`"), "true")
}

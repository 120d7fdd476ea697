package game

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/greeni/pkg/provider/llm"
	llmmock "github.com/MrWong99/greeni/pkg/provider/llm/mock"
)

func TestNewJudge_NilProvider(t *testing.T) {
	t.Parallel()
	if _, err := NewJudge(nil, "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCheckFiveQ_Verdicts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		reply string
		want  bool
	}{
		{"True", true},
		{" true.\n", true},
		{`"TRUE"`, true},
		{"False", false},
		{"True, because they said it", false},
		{"", false},
	}
	for _, tt := range tests {
		p := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: tt.reply}}
		j, err := NewJudge(p, "mock")
		if err != nil {
			t.Fatal(err)
		}
		got, err := j.CheckFiveQ(context.Background(), "사자 아닐까?", "사자")
		if err != nil {
			t.Fatalf("CheckFiveQ(%q): %v", tt.reply, err)
		}
		if got != tt.want {
			t.Errorf("reply %q graded %v, want %v", tt.reply, got, tt.want)
		}
	}
}

func TestCheckFiveQ_Prompt(t *testing.T) {
	t.Parallel()
	p := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "True"}}
	j, _ := NewJudge(p, "mock")
	if _, err := j.CheckFiveQ(context.Background(), " 사자인 것 같아 ", " 사자 "); err != nil {
		t.Fatal(err)
	}

	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	msgs := calls[0].Req.Messages
	if len(msgs) != 2 || msgs[0].Role != llm.RoleSystem || msgs[1].Role != llm.RoleUser {
		t.Fatalf("messages = %+v", msgs)
	}
	user := msgs[1].Content
	for _, want := range []string{`정답 단어: "사자"`, `아이의 발화: "사자인 것 같아"`, `"사자 아닐까?"`, `"True" 또는 "False"`} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt lacks %q", want)
		}
	}
	if strings.Contains(user, "%!") {
		t.Errorf("prompt has formatting errors:\n%s", user)
	}
}

func TestCheckFiveQ_UpstreamError(t *testing.T) {
	t.Parallel()
	p := &llmmock.Provider{CompleteErr: errors.New("429")}
	j, _ := NewJudge(p, "mock")
	if _, err := j.CheckFiveQ(context.Background(), "a", "b"); !errors.Is(err, ErrJudgeUpstream) {
		t.Errorf("err = %v, want ErrJudgeUpstream", err)
	}
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/MrWong99/greeni/internal/apperr"
	"github.com/MrWong99/greeni/internal/dialogue"
)

// ── Role-play ────────────────────────────────────────────────────────────────

type roleplayRequest struct {
	SessionID   string   `json:"session_id"`
	Role        string   `json:"role"`
	UserText    string   `json:"user_text"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

type roleplayResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Turn      int    `json:"turn"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleRoleplay(w http.ResponseWriter, r *http.Request) {
	if s.deps.Roleplay == nil {
		writeError(w, r, apperr.Unavailable("role-play is not configured"))
		return
	}
	var req roleplayRequest
	if err := decodeJSON(w, r, s.limits.JSON, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r = withSession(r, id)
	role, ok := dialogue.ParseRole(strings.TrimSpace(req.Role))
	if !ok {
		writeError(w, r, apperr.Validation(apperr.CodeInvalidRole, "role must be one of shop, teacher, friend"))
		return
	}
	text, err := requireText(req.UserText)
	if err != nil {
		writeError(w, r, err)
		return
	}
	overrides := dialogue.Overrides{Temperature: req.Temperature, TopP: req.TopP, MaxTokens: req.MaxTokens}
	if err := overrides.Validate(); err != nil {
		writeError(w, r, apperr.Validation(apperr.CodeInvalidParameter, err.Error()))
		return
	}

	res, err := s.deps.Roleplay.Turn(r.Context(), dialogue.TurnRequest{
		SessionID: id,
		Role:      role,
		Text:      text,
		Overrides: overrides,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roleplayResponse{SessionID: id, Reply: res.Reply, Turn: res.TurnCount})
}

func (s *Server) handleRoleplayClose(w http.ResponseWriter, r *http.Request) {
	if s.deps.RoleplayClose == nil {
		writeError(w, r, apperr.Unavailable("role-play is not configured"))
		return
	}
	var req sessionRequest
	if err := decodeJSON(w, r, s.limits.JSON, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r = withSession(r, id)
	if _, err := s.deps.RoleplayClose.End(r.Context(), id, dialogue.StatusEnded); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id})
}

// ── Diary ────────────────────────────────────────────────────────────────────

type diaryChatRequest struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text"`
}

type diaryChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	TurnCount int    `json:"turn_count"`
	Status    string `json:"status"`
}

type diaryEndRequest struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type diaryEndResponse struct {
	SessionID string `json:"session_id"`
	TurnCount int    `json:"turn_count"`
	Status    string `json:"status"`
}

type emotionBody struct {
	Primary    string  `json:"primary"`
	Confidence float64 `json:"confidence"`
}

type summarizeResponse struct {
	SessionID string      `json:"session_id"`
	TurnCount int         `json:"turn_count"`
	Summary   string      `json:"summary"`
	Emotion   emotionBody `json:"emotion"`
}

func (s *Server) handleDiaryChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.Diary == nil {
		writeError(w, r, apperr.Unavailable("diary is not configured"))
		return
	}
	var req diaryChatRequest
	if err := decodeJSON(w, r, s.limits.JSON, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r = withSession(r, id)
	text, err := requireText(req.UserText)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.Diary.Turn(r.Context(), dialogue.TurnRequest{SessionID: id, Text: text})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diaryChatResponse{
		SessionID: id,
		Reply:     res.Reply,
		TurnCount: res.TurnCount,
		Status:    string(res.Status),
	})
}

func (s *Server) handleDiaryEnd(w http.ResponseWriter, r *http.Request) {
	if s.deps.DiaryLife == nil {
		writeError(w, r, apperr.Unavailable("diary is not configured"))
		return
	}
	var req diaryEndRequest
	if err := decodeJSON(w, r, s.limits.JSON, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r = withSession(r, id)
	asserted, ok := dialogue.ParseStatus(strings.TrimSpace(req.Status))
	if !ok {
		writeError(w, r, apperr.Validation(apperr.CodeInvalidStatus, "status must be one of active, completed, ended"))
		return
	}

	res, err := s.deps.DiaryLife.End(r.Context(), id, asserted)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diaryEndResponse{SessionID: id, TurnCount: res.TurnCount, Status: string(res.Status)})
}

func (s *Server) handleDiarySummarize(w http.ResponseWriter, r *http.Request) {
	if s.deps.DiaryLife == nil {
		writeError(w, r, apperr.Unavailable("diary is not configured"))
		return
	}
	var req sessionRequest
	if err := decodeJSON(w, r, s.limits.JSON, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := requireSessionID(req.SessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r = withSession(r, id)

	res, err := s.deps.DiaryLife.Summarize(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarizeResponse{
		SessionID: id,
		TurnCount: res.TurnCount,
		Summary:   res.Summary,
		Emotion:   emotionBody{Primary: string(res.Emotion.Primary), Confidence: res.Emotion.Confidence},
	})
}

func requireText(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation(apperr.CodeEmptyText, "user_text must not be empty")
	}
	return s, nil
}

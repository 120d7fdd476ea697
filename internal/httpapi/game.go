package httpapi

import (
	"net/http"
	"strings"

	"github.com/MrWong99/greeni/internal/apperr"
)

type gameRequest struct {
	Utterance string `json:"utterance"`
	Answer    string `json:"answer"`
}

type animalResponse struct {
	Correct bool    `json:"correct"`
	Matched *string `json:"matched"`
	Note    *string `json:"note"`
}

type correctResponse struct {
	Correct bool `json:"correct"`
}

func (s *Server) decodeGame(w http.ResponseWriter, r *http.Request) (gameRequest, bool) {
	var req gameRequest
	if err := decodeJSON(w, r, s.limits.JSON, &req); err != nil {
		writeError(w, r, err)
		return req, false
	}
	if strings.TrimSpace(req.Answer) == "" {
		writeError(w, r, apperr.Validation(apperr.CodeInvalidRequest, "answer is required"))
		return req, false
	}
	return req, true
}

func (s *Server) handleAnimalCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGame(w, r)
	if !ok {
		return
	}
	res := s.deps.Checker.CheckAnimal(req.Utterance, req.Answer)
	writeJSON(w, http.StatusOK, animalResponse{
		Correct: res.Correct,
		Matched: nullable(res.Matched),
		Note:    nullable(res.Note),
	})
}

func (s *Server) handleTwentyQCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, correctResponse{Correct: s.deps.Checker.CheckTwentyQ(req.Utterance, req.Answer)})
}

func (s *Server) handleFiveQCheck(w http.ResponseWriter, r *http.Request) {
	if s.deps.Judge == nil {
		writeError(w, r, apperr.Unavailable("five questions judge is not configured"))
		return
	}
	req, ok := s.decodeGame(w, r)
	if !ok {
		return
	}
	correct, err := s.deps.Judge.CheckFiveQ(r.Context(), req.Utterance, req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, correctResponse{Correct: correct})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

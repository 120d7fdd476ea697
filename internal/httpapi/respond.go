package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrWong99/greeni/internal/apperr"
	"github.com/MrWong99/greeni/internal/observe"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err, logs it with request context, and writes the
// envelope. Causes are logged, never sent.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := classify(err)
	status := ae.HTTPStatus()

	log := observe.Logger(r.Context()).With(
		slog.String("path", r.URL.Path),
		slog.String("code", ae.Code),
		slog.Int("status", status),
	)
	switch ae.Kind {
	case apperr.KindInternal:
		log.Error("request failed", "err", err)
	case apperr.KindUpstream:
		log.Warn("upstream failure", "err", err)
	default:
		log.Debug("request rejected", "err", err)
	}

	writeJSON(w, status, errorBody{Error: ae.Message, Code: ae.Code})
}

// decodeJSON reads one JSON object from r into v, capping the body at limit.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeUnsupportedFormat, Message: "content type must be application/json", Status: http.StatusUnsupportedMediaType}
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if dec.More() {
		return apperr.Validation(apperr.CodeInvalidJSON, "request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		return tooLargeError()
	case errors.Is(err, io.EOF):
		return apperr.Validation(apperr.CodeInvalidJSON, "request body is empty")
	case errors.As(err, &typeErr):
		return apperr.Validation(apperr.CodeInvalidParameter, "field "+typeErr.Field+" has the wrong type")
	default:
		return apperr.Validation(apperr.CodeInvalidJSON, "request body is not valid JSON")
	}
}

func tooLargeError() *apperr.Error {
	return &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeRequestTooLarge, Message: "request body too large", Status: http.StatusRequestEntityTooLarge}
}

// requireSessionID trims id and rejects empty or oversized values.
func requireSessionID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperr.Validation(apperr.CodeInvalidRequest, "session_id is required")
	}
	if len(id) > maxSessionIDLen {
		return "", apperr.Validation(apperr.CodeInvalidRequest, "session_id is too long")
	}
	return id, nil
}

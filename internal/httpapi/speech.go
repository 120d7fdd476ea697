package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrWong99/greeni/internal/apperr"
	"github.com/MrWong99/greeni/internal/speech"
	"github.com/MrWong99/greeni/pkg/provider/tts"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temp files.
const multipartMemory = 8 << 20

type transcribeResponse struct {
	Text     string `json:"text"`
	AudioURL string `json:"audio_url,omitempty"`
}

type speakRequest struct {
	Text  string   `json:"text"`
	Voice string   `json:"voice,omitempty"`
	Speed *float64 `json:"speed,omitempty"`
}

type speakResponse struct {
	AudioURL string `json:"audio_url"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.deps.Speech == nil || !s.deps.Speech.STTEnabled() {
		writeError(w, r, apperr.Unavailable("speech-to-text is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.limits.Audio)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, r, multipartError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.Validation(apperr.CodeInvalidRequest, "file is required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, apperr.Internal(err))
		return
	}

	storeAudio := false
	if v := strings.TrimSpace(r.FormValue("store_audio")); v != "" {
		storeAudio, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, apperr.Validation(apperr.CodeInvalidParameter, "store_audio must be a boolean"))
			return
		}
	}

	res, err := s.deps.Speech.Transcribe(r.Context(), speech.TranscribeRequest{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		StoreAudio:  storeAudio,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{Text: res.Text, AudioURL: res.AudioURL})
}

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return tooLargeError()
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		return &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeUnsupportedFormat, Message: "request must be multipart/form-data", Status: http.StatusUnsupportedMediaType}
	default:
		return apperr.Validation(apperr.CodeInvalidRequest, "malformed multipart body")
	}
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if s.deps.Speech == nil || !s.deps.Speech.TTSEnabled() {
		writeError(w, r, apperr.Unavailable("text-to-speech is not configured"))
		return
	}
	var req speakRequest
	if err := decodeJSON(w, r, s.limits.JSON, &req); err != nil {
		writeError(w, r, err)
		return
	}
	speed := tts.DefaultSpeed
	if req.Speed != nil {
		speed = *req.Speed
		if speed < tts.MinSpeed || speed > tts.MaxSpeed {
			writeError(w, r, speech.ErrSpeedRange)
			return
		}
	}

	res, err := s.deps.Speech.Speak(r.Context(), speech.SpeakRequest{Text: req.Text, Voice: req.Voice, Speed: speed})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Audio != nil {
		w.Header().Set("Content-Type", res.Audio.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Audio.Data)
		return
	}
	writeJSON(w, http.StatusOK, speakResponse{AudioURL: res.AudioURL})
}

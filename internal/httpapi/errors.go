package httpapi

import (
	"errors"

	"github.com/MrWong99/greeni/internal/apperr"
	"github.com/MrWong99/greeni/internal/dialogue"
	"github.com/MrWong99/greeni/internal/game"
	"github.com/MrWong99/greeni/internal/speech"
)

// classify maps use-case errors to client-facing [apperr.Error]s.
func classify(err error) *apperr.Error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, dialogue.ErrSessionCompleted):
		return apperr.Conflict(apperr.CodeSessionCompleted, "session already completed")
	case errors.Is(err, dialogue.ErrSessionNotFound):
		return apperr.NotFound(apperr.CodeDiaryNotFound, "diary session not found")
	case errors.Is(err, dialogue.ErrEmptyReply):
		return apperr.Upstream(apperr.CodeLLMBadResponse, err)
	case errors.Is(err, dialogue.ErrUpstream), errors.Is(err, game.ErrJudgeUpstream):
		return apperr.Upstream(apperr.CodeLLMUpstream, err)

	case errors.Is(err, speech.ErrSTTDisabled):
		return apperr.Unavailable("speech-to-text is not configured")
	case errors.Is(err, speech.ErrTTSDisabled):
		return apperr.Unavailable("text-to-speech is not configured")
	case errors.Is(err, speech.ErrEmptyAudio):
		return apperr.Validation(apperr.CodeInvalidRequest, "file is empty")
	case errors.Is(err, speech.ErrEmptyText):
		return apperr.Validation(apperr.CodeEmptyText, "text must not be empty")
	case errors.Is(err, speech.ErrSpeedRange):
		return apperr.Validation(apperr.CodeInvalidParameter, "speed must be within [0.5, 2.0]")
	case errors.Is(err, speech.ErrSTTUpstream):
		return apperr.Upstream(apperr.CodeSTTUpstream, err)
	case errors.Is(err, speech.ErrTTSUpstream):
		return apperr.Upstream(apperr.CodeTTSUpstream, err)
	case errors.Is(err, speech.ErrStoreFailure):
		return apperr.Upstream(apperr.CodeStorageUpstream, err)
	}
	return apperr.From(err)
}

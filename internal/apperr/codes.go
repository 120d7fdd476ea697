package apperr

// Stable client codes.
const (
	CodeInvalidRequest    = "invalid_request"
	CodeInvalidJSON       = "invalid_json"
	CodeInvalidRole       = "invalid_role"
	CodeEmptyText         = "empty_text"
	CodeInvalidStatus     = "invalid_status"
	CodeInvalidParameter  = "invalid_parameter"
	CodeSessionCompleted  = "session_completed"
	CodeDiaryNotFound     = "diary_session_not_found"
	CodeLLMUpstream       = "llm_upstream_error"
	CodeLLMBadResponse    = "llm_bad_response"
	CodeSTTUpstream       = "stt_upstream_error"
	CodeTTSUpstream       = "tts_upstream_error"
	CodeStorageUpstream   = "storage_upstream_error"
	CodeUpstreamTimeout   = "upstream_timeout"
	CodeFeatureDisabled   = "feature_unavailable"
	CodeNotFound          = "not_found"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeInternal          = "internal_error"
	CodeRequestTooLarge   = "request_too_large"
	CodeUnsupportedFormat = "unsupported_media_type"
)

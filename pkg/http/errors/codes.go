package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"
	ErrCodeInvalidMode      = "invalid_mode"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Matchmaking errors
	ErrCodeEnqueueFailed     = "enqueue_failed"
	ErrCodeCancelFailed      = "cancel_failed"
	ErrCodeProfileNotFound   = "profile_not_found"

	// Match errors
	ErrCodeInvalidMatchID   = "invalid_match_id"
	ErrCodeMatchNotFound    = "match_not_found"
	ErrCodeNotParticipant   = "not_participant"
	ErrCodeCompletionFailed = "completion_failed"

	// Challenge errors
	ErrCodeChallengeNotFound = "challenge_not_found"
	ErrCodeChallengeSettled  = "challenge_settled"
	ErrCodeSelfChallenge     = "self_challenge"
	ErrCodeOpponentNotFound  = "opponent_not_found"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)

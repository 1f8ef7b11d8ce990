package response

// ErrCode identifies an API error independently of its message.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrIndexOutOfRange ErrCode = "INDEX_OUT_OF_RANGE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrNotTrueFalse ErrCode = "NOT_TRUE_FALSE"
	ErrNoSubmission ErrCode = "NO_SUBMISSION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the human-readable message for code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid question id."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrIndexOutOfRange:
		return "Position is outside the list of questions."

	case ErrNotFound:
		return "Resource not found."
	case ErrNotTrueFalse:
		return "Only True/False questions can have child questions."
	case ErrNoSubmission:
		return "The form has not been submitted yet."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}

package response

// ErrCode is a typed error code for consistent API error identification.
type ErrCode string

const (
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrNoData     ErrCode = "NO_DATA"
	ErrInternal   ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrNotFound:
		return "Resource not found."
	case ErrNoData:
		return "The dataset has no records to chart."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}

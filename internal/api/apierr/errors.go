package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/comate/comate/internal/model"
	"github.com/comate/comate/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeValidation        = "VALIDATION_ERROR"
	CodeHandleTaken       = "HANDLE_TAKEN"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeNoActiveMatch     = "NO_ACTIVE_MATCH"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeLockTimeout       = "LOCK_TIMEOUT"
	CodeTransactionFailed = "TRANSACTION_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// httpError is an error that carries its own status and API error body
type httpError struct {
	status   int
	apiError APIError
}

func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	status, apiErr := toHTTPError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: apiErr})
}

func toHTTPError(err error) (int, APIError) {
	var he *httpError
	if errors.As(err, &he) {
		return he.status, he.apiError
	}

	// Transaction errors win over any sentinel they wrap. Lock timeouts are checked first.
	switch {
	case errors.Is(err, model.ErrLockTimeout):
		return http.StatusServiceUnavailable, APIError{Code: CodeLockTimeout, Message: "Matcher busy, try again"}
	case errors.Is(err, model.ErrTransactionFailed):
		return http.StatusInternalServerError, APIError{Code: CodeTransactionFailed, Message: "Transaction failed"}
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, APIError{Code: CodeValidation, Message: ve.Error()}
	}

	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, APIError{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, model.ErrDuplicateHandle):
		return http.StatusConflict, APIError{Code: CodeHandleTaken, Message: "Handle already taken"}
	case errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound, APIError{Code: CodeUserNotFound, Message: "User not found"}
	case errors.Is(err, model.ErrNoActiveMatch):
		return http.StatusNotFound, APIError{Code: CodeNoActiveMatch, Message: "No active match"}
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, APIError{Code: CodeUnauthorized, Message: "Admin key required"}
	default:
		return http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{
		status:   http.StatusBadRequest,
		apiError: APIError{Code: CodeInvalidRequest, Message: message},
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{
		status:   http.StatusUnauthorized,
		apiError: APIError{Code: CodeUnauthorized, Message: "Admin key required"},
	}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{
		status:   http.StatusInternalServerError,
		apiError: APIError{Code: CodeInternalError, Message: "Internal server error"},
	}
}

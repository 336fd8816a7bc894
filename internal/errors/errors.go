package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user row does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrGroupNotFound is returned when a group row does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGuestGroupMissing is returned when the guest group row is absent; the site cannot serve anyone.
	ErrGuestGroupMissing = errors.New("guest group missing")
	// ErrMalformedRights is returned when a stored rights blob is not valid JSON.
	ErrMalformedRights = errors.New("malformed rights json")
	// ErrInteractiveContext is returned when a batch job is started from an interactive terminal.
	ErrInteractiveContext = errors.New("batch job refused in interactive context")
	// ErrPermissionDenied is returned when the current actor lacks a required right.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidCSRF is returned when a mutating request carries a wrong CSRF token.
	ErrInvalidCSRF = errors.New("invalid csrf token")

	// ErrInvalidPath is returned when a file path contains characters outside the allowlist.
	ErrInvalidPath = errors.New("invalid file path")
	// ErrFileNotFound is returned when an image file is missing or unreadable.
	ErrFileNotFound = errors.New("file not found")
	// ErrDirNotWritable is returned when a destination directory cannot be written.
	ErrDirNotWritable = errors.New("directory not writable")
	// ErrUnsupportedType is returned when the sniffed MIME type is not handled.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrImageTooLarge is returned when an image exceeds the dimension or size ceiling.
	ErrImageTooLarge = errors.New("image too large")
	// ErrNoBackend is returned when no thumbnail backend can process the image.
	ErrNoBackend = errors.New("no thumbnail backend available")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors, including wrapped ones, to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrGroupNotFound):
		return NewHTTPError(http.StatusNotFound, ErrGroupNotFound.Error(), "GROUP_NOT_FOUND")
	case errors.Is(err, ErrFileNotFound):
		return NewHTTPError(http.StatusNotFound, ErrFileNotFound.Error(), "FILE_NOT_FOUND")
	case errors.Is(err, ErrPermissionDenied):
		return NewHTTPError(http.StatusForbidden, ErrPermissionDenied.Error(), "PERMISSION_DENIED")
	case errors.Is(err, ErrInvalidCSRF):
		return NewHTTPError(http.StatusForbidden, ErrInvalidCSRF.Error(), "INVALID_CSRF")
	case errors.Is(err, ErrInvalidPath):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidPath.Error(), "INVALID_PATH")
	case errors.Is(err, ErrUnsupportedType):
		return NewHTTPError(http.StatusUnsupportedMediaType, ErrUnsupportedType.Error(), "UNSUPPORTED_TYPE")
	case errors.Is(err, ErrImageTooLarge):
		return NewHTTPError(http.StatusRequestEntityTooLarge, ErrImageTooLarge.Error(), "IMAGE_TOO_LARGE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

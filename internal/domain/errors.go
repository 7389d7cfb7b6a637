package domain

import "errors"

// Error codes for the four operational failure families. Handlers map these
// onto HTTP statuses; everything else is an internal error.
const (
	CodeResolutionFailed = "RESOLUTION_FAILED"
	CodeDispatchFailed   = "DISPATCH_FAILED"
	CodeDiscoveryFailed  = "DISCOVERY_FAILED"
	CodeConfigInvalid    = "CONFIG_INVALID"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return e.Code + ": " + e.Message + ": " + e.cause.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WrapError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// IsCode reports whether err carries the given error code anywhere in its
// chain.
func IsCode(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

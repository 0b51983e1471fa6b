package location

import (
	"errors"
	"strings"
)

var ErrAlreadyStarted = errors.New("location tracker already started")

type ErrorCode int

const (
	PermissionDenied ErrorCode = iota + 1
	PositionUnavailable
	Timeout
	Unsupported
)

func (c ErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// ParseErrorCode accepts the names produced by String. Anything else maps to
// PositionUnavailable.
func ParseErrorCode(s string) ErrorCode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permission_denied", "permission-denied", "denied":
		return PermissionDenied
	case "timeout":
		return Timeout
	case "unsupported":
		return Unsupported
	default:
		return PositionUnavailable
	}
}

func (c ErrorCode) defaultMessage() string {
	switch c {
	case PermissionDenied:
		return "Please allow location access to use the map and post alerts."
	case Timeout:
		return "Timed out waiting for your location."
	case Unsupported:
		return "Geolocation is not supported on this platform."
	default:
		return "Your location is currently unavailable."
	}
}

// Error is a failed location reading. Message is suitable for display.
type Error struct {
	Code    ErrorCode
	Message string
}

func NewError(code ErrorCode, message string) *Error {
	if message == "" {
		message = code.defaultMessage()
	}
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return "location " + e.Code.String() + ": " + e.Message
}

func asLocationError(err error) *Error {
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return NewError(PositionUnavailable, "")
}

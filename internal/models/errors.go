package models

import (
	"errors"
	"strconv"
)

// ErrorCode is sent to the watch in place of a route count
type ErrorCode int

const (
	NoConnection         ErrorCode = -1
	InvalidAPIKey        ErrorCode = -2
	NoResults            ErrorCode = -3
	UnknownAPIError      ErrorCode = -4
	LocationAccessDenied ErrorCode = -5
	UnknownLocationError ErrorCode = -6
	CouldNotSendMessage  ErrorCode = -7
)

func (c ErrorCode) String() string {
	switch c {
	case NoConnection:
		return "no_connection"
	case InvalidAPIKey:
		return "invalid_api_key"
	case NoResults:
		return "no_results"
	case UnknownAPIError:
		return "unknown_api_error"
	case LocationAccessDenied:
		return "location_access_denied"
	case UnknownLocationError:
		return "unknown_location_error"
	case CouldNotSendMessage:
		return "could_not_send_message"
	}
	return "ErrorCode(" + strconv.Itoa(int(c)) + ")"
}

// CodedError is implemented by errors that know which code the watch should see
type CodedError interface {
	error
	Code() ErrorCode
}

// CodeFor walks the error chain and returns the first code found.
// Errors without a code are reported as UnknownAPIError.
func CodeFor(err error) ErrorCode {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return UnknownAPIError
}

type codeError struct {
	code ErrorCode
	msg  string
}

func (e *codeError) Error() string   { return e.msg }
func (e *codeError) Code() ErrorCode { return e.code }

// NewCodedError returns a sentinel error carrying code
func NewCodedError(code ErrorCode, msg string) error {
	return &codeError{code: code, msg: msg}
}

var (
	// ErrNoResults means every stop yielded zero usable departures
	ErrNoResults = NewCodedError(NoResults, "no departures found")
	// ErrLocationDenied means the user refused location access
	ErrLocationDenied = NewCodedError(LocationAccessDenied, "location access denied")
	// ErrLocationUnavailable covers every other position failure
	ErrLocationUnavailable = NewCodedError(UnknownLocationError, "location unavailable")
	// ErrSendFailed means a record was built but could not be delivered
	ErrSendFailed = NewCodedError(CouldNotSendMessage, "could not send message")
)

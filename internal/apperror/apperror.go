// Package apperror defines typed errors that carry a result code.
// The numeric prefix of a result code is the HTTP status of the response.
package apperror

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Result codes used across the API.
const (
	CodeOK                = "200-OK"
	CodeSuccess           = "200-1"
	CodeCreated           = "201-1"
	CodeMalformed         = "400-1"
	CodeBadRequest        = "400-BAD_REQUEST"
	CodeUnauthenticated   = "401-1"
	CodeNoPermission      = "403-NO_PERMISSION"
	CodeForbidden         = "403-FORBIDDEN"
	CodeUserNotFound      = "404-1"
	CodeUnknownCredential = "404-2"
	CodeTeamNotFound      = "404-TEAM_NOT_FOUND"
	CodeMemberNotFound    = "404-MEMBER_NOT_FOUND"
	CodeTodoNotFound      = "404-TODO_NOT_FOUND"
	CodeTodoListNotFound  = "404-TODO_LIST_NOT_FOUND"
	CodeReminderNotFound  = "404-REMINDER_NOT_FOUND"
	CodeRouteNotFound     = "404-NOT_FOUND"
	CodeMethodNotAllowed  = "405-1"
	CodeEmailExists       = "409-1"
	CodeAlreadyMember     = "409-ALREADY_MEMBER"
	CodeLastLeader        = "409-LAST_LEADER_CANNOT_BE_REMOVED"
	CodePayloadTooLarge   = "413-1"
	CodeTooManyRequests   = "429-1"
	CodeInternal          = "500-1"
)

// Error is an error with a result code and a client-safe message.
// Err holds the underlying cause and is never rendered to clients.
type Error struct {
	Code    string
	Message string
	Err     error
}

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that keeps err as its cause.
func Wrap(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status encoded in the result code.
func (e *Error) Status() int {
	return StatusOf(e.Code)
}

// StatusOf parses the numeric prefix of a result code.
// Codes without a valid prefix map to 500.
func StatusOf(code string) int {
	prefix, _, _ := strings.Cut(code, "-")
	status, err := strconv.Atoi(prefix)
	if err != nil || status < 100 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// From extracts an *Error from err. Errors without a result code become
// a generic internal error that keeps err as its cause.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeInternal, "internal server error", err)
}

// HasCode reports whether err carries the given result code.
func HasCode(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// Malformed reports a request whose credentials or body could not be parsed.
func Malformed(message string) *Error {
	return New(CodeMalformed, message)
}

// BadRequest reports invalid input.
func BadRequest(message string) *Error {
	return New(CodeBadRequest, message)
}

// Unauthenticated reports a protected request without a usable credential.
func Unauthenticated() *Error {
	return New(CodeUnauthenticated, "login required")
}

// UnknownCredential reports an API key that matches no user.
func UnknownCredential() *Error {
	return New(CodeUnknownCredential, "unknown api key")
}

// NoPermission reports a missing team membership or role.
func NoPermission(message string) *Error {
	return New(CodeNoPermission, message)
}

// Forbidden reports access to a resource outside the caller's team.
func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

// NotFound reports a missing entity.
func NotFound(code, message string) *Error {
	return New(code, message)
}

// Conflict reports a state conflict such as duplicate membership.
func Conflict(code, message string) *Error {
	return New(code, message)
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return Wrap(CodeInternal, "internal server error", err)
}

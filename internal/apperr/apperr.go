// Package apperr carries the public error codes returned by the API.
//
// Services return *Error values; the HTTP layer renders them as
// {"error": Code, "details": [...]} with the attached status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Public error codes.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeSamePassword           = "SAME_PASSWORD"
	CodeUserInactive           = "USER_INACTIVE"
	CodeEmailExists            = "EMAIL_ALREADY_EXISTS"
	CodeDuplicateEmail         = "DUPLICATE_EMAIL"
	CodeMissingToken           = "MISSING_OR_INVALID_TOKEN"
	CodeInvalidToken           = "INVALID_TOKEN"
	CodeTooManyAttempts        = "TOO_MANY_ATTEMPTS"
	CodeForbidden              = "FORBIDDEN"
	CodeForbiddenNotOwner      = "FORBIDDEN_NOT_OWNER"
	CodeForbiddenNotRoommate   = "FORBIDDEN_NOT_ROOMMATE"
	CodeNotFound               = "NOT_FOUND"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodePisoNotFound           = "PISO_NOT_FOUND"
	CodeHabitacionNotFound     = "HABITACION_NOT_FOUND"
	CodeStayNotFound           = "STAY_NOT_FOUND"
	CodePhotoNotFound          = "FOTO_NOT_FOUND"
	CodePisoInactive           = "PISO_INACTIVE"
	CodeHabitacionInactive     = "HABITACION_INACTIVE"
	CodeRoleNotAllowedForStay  = "ROLE_NOT_ALLOWED_FOR_STAY"
	CodeUserHasActiveStay      = "USER_ALREADY_HAS_ACTIVE_STAY"
	CodeRoomAlreadyOccupied    = "ROOM_ALREADY_OCCUPIED"
	CodeRoomNotAvailable       = "ROOM_NOT_AVAILABLE"
	CodeActiveStayConflict     = "CONFLICT_ACTIVE_STAY_OR_OCCUPANCY"
	CodeNoActiveStay           = "NO_ACTIVE_STAY"
	CodeStayAlreadyClosed      = "STAY_ALREADY_CLOSED"
	CodeRoomOccupied           = "ROOM_OCCUPIED"
	CodeOrderConflict          = "ORDER_CONFLICT"
	CodeSelfVote               = "SELF_VOTE_NOT_ALLOWED"
	CodeNoCohabitation         = "NO_COHABITATION"
	CodeNoFieldsToUpdate       = "NO_FIELDS_TO_UPDATE"
	CodeInvalidRole            = "INVALID_ROL"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeInternal               = "INTERNAL_ERROR"
)

// Error is an application error with its HTTP status and public code.
type Error struct {
	Status  int
	Code    string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns a copy of e carrying the underlying cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func New(status int, code string) *Error {
	return &Error{Status: status, Code: code}
}

// Validation reports malformed input for the named fields.
func Validation(fields ...string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Details: fields}
}

func BadRequest(code string) *Error   { return New(http.StatusBadRequest, code) }
func Unauthorized(code string) *Error { return New(http.StatusUnauthorized, code) }
func Forbidden(code string) *Error    { return New(http.StatusForbidden, code) }
func NotFound(code string) *Error     { return New(http.StatusNotFound, code) }
func Conflict(code string) *Error     { return New(http.StatusConflict, code) }

// Internal hides err behind INTERNAL_ERROR.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Err: err}
}

// CodeOf returns the public code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// StatusOf returns the HTTP status of err.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries the given public code.
func Is(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

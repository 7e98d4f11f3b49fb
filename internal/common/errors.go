package common

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound marks a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a request that failed domain validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict marks a uniqueness or state conflict.
	ErrConflict = errors.New("conflict")
	// ErrForbidden marks an authenticated caller lacking permission.
	ErrForbidden = errors.New("forbidden")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// BadRequest builds a 400 AppError pointing at a single field.
func BadRequest(field, message string, err error) *AppError {
	if err == nil {
		err = ErrInvalidInput
	} else {
		err = errors.Join(ErrInvalidInput, err)
	}
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    map[string]any{"field": field},
	}
}

// NotFound builds a 404 AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, HTTPStatus: http.StatusNotFound, Err: ErrNotFound}
}

// Unauthorized is returned when an operation needs a signed-in caller.
func Unauthorized() *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: "authentication required", HTTPStatus: http.StatusUnauthorized, Err: ErrForbidden}
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// DBError translates storage errors into AppErrors. pgx.ErrNoRows becomes a
// 404 with notFoundMsg and unique violations become 409. Other errors pass
// through unchanged.
func DBError(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: "NOT_FOUND", Message: notFoundMsg, HTTPStatus: http.StatusNotFound, Err: errors.Join(ErrNotFound, err)}
	}
	if IsUniqueViolation(err) {
		return &AppError{Code: "CONFLICT", Message: "resource already exists", HTTPStatus: http.StatusConflict, Err: errors.Join(ErrConflict, err)}
	}
	return err
}

// WriteError renders err using the canonical error shape. AppErrors keep their
// code and status, sentinel errors map to 400/403/404/409 and anything else is
// a 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, ErrForbidden):
		JSONError(w, http.StatusForbidden, "FORBIDDEN", "forbidden", nil)
	case errors.Is(err, ErrConflict), IsUniqueViolation(err):
		JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}

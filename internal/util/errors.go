package util

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies an error for the client. It is part of every error
// response so callers can react differently to each class.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindTransient     Kind = "transient"
	KindUnauthorized  Kind = "unauthorized"
	KindInternal      Kind = "internal"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrStaleVersion       = errors.New("lesson was modified by another request")
	ErrInvalidBody        = errors.New("invalid request body")
)

// AppError carries a Kind with a client-facing message.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Public is the text shown to clients. The wrapped error is only exposed
// when no message was set.
func (e *AppError) Public() string {
	if e.Message != "" || e.Err == nil {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...interface{}) error {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NewAuthorizationError(format string, args ...interface{}) error {
	return newError(KindAuthorization, ErrPermissionDenied, format, args...)
}

func NewValidationError(format string, args ...interface{}) error {
	return newError(KindValidation, nil, format, args...)
}

func NewNotFoundError(format string, args ...interface{}) error {
	return newError(KindNotFound, nil, format, args...)
}

func NewConflictError(format string, args ...interface{}) error {
	return newError(KindConflict, nil, format, args...)
}

// WrapValidation keeps err in the chain while marking it as a validation
// failure.
func WrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: KindValidation, Err: err}
}

// NewInvalidBodyError hides decoder details from the client and keeps them
// in the chain for the logs.
func NewInvalidBodyError(err error) error {
	return &AppError{Kind: KindValidation, Message: ErrInvalidBody.Error(), Err: err}
}

// WrapTransient marks a store failure as retryable by the caller.
func WrapTransient(err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: KindTransient, Message: "store unavailable", Err: err}
}

// KindOf classifies any error, including raw gorm and driver errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return KindAuthorization
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenRevoked):
		return KindUnauthorized
	case errors.Is(err, ErrStaleVersion), errors.Is(err, gorm.ErrDuplicatedKey):
		return KindConflict
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return KindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	// Drivers that do not translate constraint errors.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return KindConflict
	case strings.Contains(msg, "foreign key constraint"), strings.Contains(msg, "violates foreign key"):
		return KindNotFound
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database is closed"), strings.Contains(msg, "bad connection"),
		strings.Contains(msg, "too many connections"):
		return KindTransient
	}
	return KindInternal
}

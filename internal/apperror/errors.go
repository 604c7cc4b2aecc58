package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind — класс ошибки приложения.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindForbidden    Kind = "FORBIDDEN"
	KindBusinessRule Kind = "BUSINESS_RULE"
	KindValidation   Kind = "VALIDATION"
	KindGateway      Kind = "GATEWAY"
	KindInternal     Kind = "INTERNAL"
)

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func NotFound(format string, args ...any) *AppError {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *AppError {
	return New(KindConflict, format, args...)
}

func Forbidden(format string, args ...any) *AppError {
	return New(KindForbidden, format, args...)
}

func BusinessRule(format string, args ...any) *AppError {
	return New(KindBusinessRule, format, args...)
}

func Validation(format string, args ...any) *AppError {
	return New(KindValidation, format, args...)
}

func Gateway(err error, message string) *AppError {
	return Wrap(KindGateway, err, message)
}

func Internal(err error, message string) *AppError {
	return Wrap(KindInternal, err, message)
}

// KindOf возвращает класс ошибки; всё, что не AppError, считается внутренней ошибкой.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message — текст для клиента без внутренних подробностей.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindBusinessRule, KindValidation:
		return http.StatusBadRequest
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Package apperror defines the error taxonomy shared by the HTTP surface and the
// websocket gateway.
package apperror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Kind string

const (
	Unauthenticated    Kind = "Unauthenticated"
	NotAParticipant    Kind = "NotAParticipant"
	InvalidParticipant Kind = "InvalidParticipant"
	SelfChat           Kind = "SelfChat"
	ValidationError    Kind = "ValidationError"
	NotFound           Kind = "NotFound"
	Forbidden          Kind = "Forbidden"
	StorageError       Kind = "StorageError"
	DuplicateKey       Kind = "DuplicateKey"
	RateLimited        Kind = "RateLimited"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Storage classifies an error returned by gorm. Missing rows become NotFound and
// unique violations become DuplicateKey; everything else is an opaque StorageError.
func Storage(err error) *Error {
	var appErr *Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(NotFound, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(DuplicateKey, "record already exists", err)
	default:
		return Wrap(StorageError, "storage failure", err)
	}
}

// FromValidation turns validator errors into a ValidationError naming the failed fields.
func FromValidation(err error) *Error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return Wrap(ValidationError, "invalid request", err)
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		messages = append(messages, fmt.Sprintf("%s failed on '%s'", fieldError.Field(), fieldError.Tag()))
	}
	return Wrap(ValidationError, strings.Join(messages, "; "), err)
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the caller-facing text of err; internal details stay in logs.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

func StatusCode(err error) int {
	switch KindOf(err) {
	case Unauthenticated:
		return fiber.StatusUnauthorized
	case NotAParticipant, Forbidden:
		return fiber.StatusForbidden
	case InvalidParticipant, NotFound:
		return fiber.StatusNotFound
	case SelfChat, ValidationError:
		return fiber.StatusBadRequest
	case DuplicateKey:
		return fiber.StatusConflict
	case RateLimited:
		return fiber.StatusTooManyRequests
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

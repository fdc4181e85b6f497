package shared

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
)

// AppError is an error that carries the HTTP status it should be rendered with.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(status int, err error, message string) *AppError {
	return &AppError{StatusCode: status, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(fiber.StatusBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(fiber.StatusUnauthorized, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return newAppError(fiber.StatusForbidden, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(fiber.StatusNotFound, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(fiber.StatusConflict, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(fiber.StatusInternalServerError, err, message)
}

// GetAppError unwraps err to an *AppError if one is present in its chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError maps any error onto an AppError. Engine errors keep their message;
// anything unknown becomes a 500 without leaking the cause.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := GetAppError(err); ok {
		return appErr
	}

	var stateErr *engine.InvalidStateError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &stateErr):
		if stateErr.Forbidden {
			return NewForbiddenError(err, stateErr.Reason)
		}
		return NewConflictError(err, stateErr.Reason)
	case errors.Is(err, engine.ErrNotFound):
		return NewNotFoundError(err, "Not Found")
	case errors.Is(err, engine.ErrConflict):
		return NewConflictError(err, "Resource was modified concurrently")
	case errors.As(err, &fiberErr):
		return newAppError(fiberErr.Code, err, fiberErr.Message)
	default:
		return NewInternalError(err, "Internal Server Error")
	}
}

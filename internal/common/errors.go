package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Parse failure taxonomy. Only ErrInputUnavailable is fatal to a request;
// everything else degrades to a best-effort record.
var (
	ErrInputUnavailable    = errors.New("input unavailable")
	ErrUpstreamUnavailable = errors.New("llm upstream unavailable")
	ErrMalformedReply      = errors.New("llm reply not repairable")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDatabase            = errors.New("database error")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

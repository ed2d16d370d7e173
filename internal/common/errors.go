package common

import (
	"errors"
	"fmt"
)

// Error codes, one per failure family.
const (
	CodePrecondition = "PRECONDITION"
	CodeExtraction   = "EXTRACTION"
	CodeDependency   = "DEPENDENCY"
	CodeLedger       = "LEDGER"
	CodeConfig       = "CONFIG_ERROR"
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

// Common application errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoDocuments       = errors.New("no documents selected")
	ErrNoCustomer        = errors.New("no customer selected")
	ErrBatchInProgress   = errors.New("batch already running")
	ErrCustomerForbidden = errors.New("customer outside scope")
	ErrRowNotEditing     = errors.New("row is not in editing mode")
	ErrUnknownField      = errors.New("unknown field")
	ErrNoLineItems       = errors.New("no line items returned")
	ErrMalformedPayload  = errors.New("malformed payload")
)

// Error constructors
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

// CodeOf returns the AppError code carried by err, or "" when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// UserMessage returns the human-readable part of err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

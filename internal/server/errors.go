package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/po-intake/internal/common"
)

// APIError is the JSON error body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// toAPIError maps application errors onto HTTP statuses.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return &APIError{Status: httpErr.Code, Code: "HTTP_ERROR", Message: fmt.Sprintf("%v", httpErr.Message)}
	}

	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		return &APIError{Status: http.StatusInternalServerError, Code: "UNKNOWN_ERROR", Message: "An unexpected error occurred", Details: err.Error()}
	}

	out := &APIError{Code: appErr.Code, Message: appErr.Message}
	if appErr.Cause != nil {
		out.Details = appErr.Cause.Error()
	}
	switch {
	case errors.Is(err, common.ErrNotFound):
		out.Status = http.StatusNotFound
	case errors.Is(err, common.ErrBatchInProgress), errors.Is(err, common.ErrRowNotEditing):
		out.Status = http.StatusConflict
	case errors.Is(err, common.ErrCustomerForbidden):
		out.Status = http.StatusForbidden
	case appErr.Code == common.CodeDependency, appErr.Code == common.CodeExtraction:
		out.Status = http.StatusBadGateway
	case appErr.Code == common.CodeConfig:
		out.Status = http.StatusInternalServerError
	default:
		out.Status = http.StatusBadRequest
	}
	return out
}

// ErrorHandler renders every handler error as an APIError.
// Usage: e.HTTPErrorHandler = server.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}
	_ = c.JSON(apiErr.Status, apiErr)
}

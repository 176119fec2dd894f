package http

import (
	"fmt"
	"net/http"
)

// Error codes carried in the error envelope.
const (
	CodeNotFound   = "ERR_NOT_FOUND"
	CodeBadRequest = "ERR_BAD_REQUEST"
	CodeInterval   = "ERR_INTERVAL"
)

// AppError is an error the API reports to the caller as is.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError builds an error for the request parameter field; field may be empty.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Field: field, Message: message, Status: status}
}

// WithParam attaches a detail the caller can act on, e.g. the accepted values.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{}, 1)
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func NotFoundError(message string) *AppError {
	return NewAppError(CodeNotFound, "", message, http.StatusNotFound)
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return NotFoundError(fmt.Sprintf(format, a...))
}

// InvalidParamError is a 400 for a path or query parameter with an unusable value.
func InvalidParamError(code, field, message string) *AppError {
	return NewAppError(code, field, message, http.StatusBadRequest)
}

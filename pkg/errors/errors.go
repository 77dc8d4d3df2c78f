package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for the failure classes the cart tells apart. Anything else is
// internal.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrOutOfStock     = errors.New("out of stock")
	ErrServiceUnavail = errors.New("service unavailable")
)

// class is the public face of a sentinel. An empty message means the
// error's own text is safe to show.
type class struct {
	sentinel error
	code     string
	status   int
	message  string
}

var (
	classes = []class{
		{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
		{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
		{ErrOutOfStock, "OUT_OF_STOCK", http.StatusConflict, ""},
		{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "a downstream service is unavailable"},
	}
	internal = class{code: "INTERNAL_ERROR", status: http.StatusInternalServerError, message: "an internal error occurred"}
)

func classOf(err error) class {
	for _, c := range classes {
		if errors.Is(err, c.sentinel) {
			return c
		}
	}
	return internal
}

// AppError is an error carrying a machine-readable code and the HTTP status
// it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(sentinel error, message string) *AppError {
	c := classOf(sentinel)
	return &AppError{Code: c.code, Message: message, Status: c.status, Err: sentinel}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return newAppError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newAppError(ErrInvalidInput, message)
}

// OutOfStock creates a 409 error for a requested amount above available stock.
func OutOfStock(productID int64, requested, available int) *AppError {
	return newAppError(ErrOutOfStock,
		fmt.Sprintf("product %d: requested %d, available %d", productID, requested, available))
}

// ServiceUnavailable creates a 503 error for an unreachable collaborator.
func ServiceUnavailable(message string) *AppError {
	return newAppError(ErrServiceUnavail, message)
}

// Classify returns the code, HTTP status and client-facing message for err.
// An AppError anywhere in the chain wins; otherwise the first matching
// sentinel decides. Internal errors never expose their text.
func Classify(err error) (code string, status int, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Status, appErr.Message
	}
	c := classOf(err)
	message = c.message
	if message == "" {
		message = err.Error()
	}
	return c.code, c.status, message
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	_, status, _ := Classify(err)
	return status
}

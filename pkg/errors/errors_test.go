package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: fmt.Errorf("redis down")}
	assert.Equal(t, "INTERNAL_ERROR: something broke: redis down", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "cart entry not found"}
	assert.Equal(t, "NOT_FOUND: cart entry not found", bare.Error())
}

func TestNotFound(t *testing.T) {
	err := NotFound("cart entry", "7")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "cart entry with id 7 not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOutOfStock(t *testing.T) {
	err := OutOfStock(3, 6, 5)
	assert.Equal(t, "OUT_OF_STOCK", err.Code)
	assert.Equal(t, "product 3: requested 6, available 5", err.Message)
	assert.True(t, errors.Is(err, ErrOutOfStock))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestServiceUnavailable(t *testing.T) {
	err := ServiceUnavailable("catalog is down")
	assert.True(t, errors.Is(err, ErrServiceUnavail))
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("load: %w", NotFound("cart", "x")), http.StatusNotFound},
		{"sentinel not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"sentinel out of stock", ErrOutOfStock, http.StatusConflict},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		status  int
		message string
	}{
		{"app error keeps its message", fmt.Errorf("add: %w", OutOfStock(1, 2, 1)), "OUT_OF_STOCK", http.StatusConflict, "product 1: requested 2, available 1"},
		{"bare not found hides detail", fmt.Errorf("key @RocketShoes:cart: %w", ErrNotFound), "NOT_FOUND", http.StatusNotFound, "resource not found"},
		{"invalid input shows its text", fmt.Errorf("amount: %w", ErrInvalidInput), "INVALID_INPUT", http.StatusBadRequest, "amount: invalid input"},
		{"unavailable hides detail", fmt.Errorf("dial 10.0.0.3: %w", ErrServiceUnavail), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "a downstream service is unavailable"},
		{"internal hides detail", errors.New("pq: password authentication failed"), "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status, message := Classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

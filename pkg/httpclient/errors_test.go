package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alicecomoura/hook-shopping-cart/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StructuredNotFound(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"42"}}`), "catalog")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "catalog with id 42 not found")
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusNotFound, `{}`), "stock")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestParseResponseError_BadRequest(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusBadRequest, `{"error":{"code":"X","message":"bad id"}}`), "stock")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "stock: bad id")
}

func TestParseResponseError_Unavailable(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusServiceUnavailable, `down`), "catalog")

	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestParseResponseError_Other(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusTeapot, `short and stout`), "catalog")

	require.Error(t, err)
	assert.Equal(t, "catalog returned status 418: short and stout", err.Error())
}

func TestStatusError_UnwrapsToAppError(t *testing.T) {
	unavailable := &StatusError{Service: "catalog", StatusCode: http.StatusServiceUnavailable, Body: `{"error":{"code":"DOWN","message":"maintenance"}}`}
	assert.ErrorIs(t, unavailable, apperrors.ErrServiceUnavail)
	assert.Equal(t, `catalog returned status 503: {"error":{"code":"DOWN","message":"maintenance"}}`, unavailable.Error())

	internal := &StatusError{Service: "catalog", StatusCode: http.StatusInternalServerError}
	assert.NotErrorIs(t, internal, apperrors.ErrServiceUnavail)
	assert.Equal(t, "catalog returned status 500", internal.Error())
}

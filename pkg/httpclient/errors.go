package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/alicecomoura/hook-shopping-cart/pkg/errors"
)

// DownstreamErrorResponse is the `{"error":{"code","message"}}` body some
// collaborators return alongside a non-2xx status.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError turns a non-2xx response into an error. The body is
// consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	return mapStatus(resp.StatusCode, downstreamMessage(body), serviceName)
}

// Unwrap maps the status to the matching apperrors sentinel, so a 503
// seen by the breaker still reads as ErrServiceUnavail.
func (e *StatusError) Unwrap() error {
	return mapStatus(e.StatusCode, downstreamMessage([]byte(e.Body)), e.Service)
}

func downstreamMessage(body []byte) string {
	var downstream DownstreamErrorResponse
	if json.Unmarshal(body, &downstream) == nil && downstream.Error != nil {
		return downstream.Error.Message
	}
	return string(body)
}

func mapStatus(status int, message, serviceName string) error {
	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(fmt.Sprintf("%s: %s", serviceName, message))
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(fmt.Sprintf("%s: %s", serviceName, message))
	default:
		return fmt.Errorf("%s returned status %d: %s", serviceName, status, message)
	}
}

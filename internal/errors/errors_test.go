package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "video not found")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain error")))

	wrapped := fmt.Errorf("context: %w", New(CodeResourceExhausted, "limit reached"))
	assert.Equal(t, CodeResourceExhausted, CodeOf(wrapped))
}

func TestMessageOf_HidesUncodedDetails(t *testing.T) {
	assert.Equal(t, "limit reached", MessageOf(New(CodeResourceExhausted, "limit reached")))
	assert.Equal(t, "internal error", MessageOf(errors.New("ydb: session pool exhausted at 10.0.0.3")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthenticated:    http.StatusUnauthorized,
		CodeInvalidToken:       http.StatusUnauthorized,
		CodeInvalidArgument:    http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodePermissionDenied:   http.StatusForbidden,
		CodeResourceExhausted:  http.StatusTooManyRequests,
		CodeFailedPrecondition: http.StatusConflict,
		CodeVendor:             http.StatusBadGateway,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatus(code), string(code))
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeVendor, "bunny request failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "bunny request failed")
	assert.Contains(t, err.Error(), "connection refused")
}

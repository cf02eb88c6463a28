package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/smallbiznis/coffeeshop/internal/authorization"
	coffeedomain "github.com/smallbiznis/coffeeshop/internal/coffee/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	boom := errors.New("events table unavailable")

	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"recommend failure", fmt.Errorf("%w: %w", coffeedomain.ErrRecommendFailed, boom), http.StatusInternalServerError, "transaction_failed"},
		{"not found", coffeedomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"invalid name", coffeedomain.ErrInvalidName, http.StatusBadRequest, "validation_error"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"policy denied", authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"malformed body", ErrInvalidRequest, http.StatusBadRequest, "validation_error"},
		{"unknown", boom, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, payload.Type)
		})
	}
}

func TestMapErrorValidationField(t *testing.T) {
	_, payload := mapError(coffeedomain.ErrInvalidBrand)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "brand", payload.Errors[0].Field)
		assert.Equal(t, "invalid_brand", payload.Errors[0].Code)
	}
}

func TestMapErrorInvalidRequest(t *testing.T) {
	_, payload := mapError(ErrInvalidRequest)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "request", payload.Errors[0].Field)
		assert.Equal(t, "invalid_request", payload.Errors[0].Code)
	}
}

func TestCheckAPIKey(t *testing.T) {
	cases := []struct {
		header   string
		expected string
		reason   string
	}{
		{"", "abc", rejectMissing},
		{"abc", "", rejectNotConfigured},
		{"abc", "abc", ""},
		{"Bearer abc", "abc", ""},
		{"bearer abc", "abc", rejectMismatch},
		{"Basic abc", "abc", rejectMismatch},
		{"  abc  ", "abc", rejectMismatch},
		{"Bearer  abc", "abc", rejectMismatch},
		{"abcd", "abc", rejectMismatch},
		{"open sesame", "open sesame", ""},
		{"Bearer open sesame", "open sesame", ""},
		{"open", "open sesame", rejectMismatch},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.reason, checkAPIKey(tc.header, tc.expected), "%q vs %q", tc.header, tc.expected)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(250_000_000))
	assert.Equal(t, "3", retryAfterSeconds(2_500_000_000))
}

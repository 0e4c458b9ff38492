package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthenticated,
		ErrInvalidCredentials, ErrInvalidToken, ErrWrongLoginMethod,
		ErrMisconfigured, ErrInternal,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Contains(t, appErr.Error(), "INTERNAL_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "db connection lost")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "user not found"}
	assert.Equal(t, "NOT_FOUND: user not found", appErr.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("listing", "abc-123"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"not found message", NotFoundMessage("no account"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"reauth", ReauthRequired("login again"), "REAUTH_REQUIRED", http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.com"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"conflict", Conflict("email taken"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"invalid input", InvalidInput("email is required"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthenticated", Unauthenticated("no token"), "UNAUTHENTICATED", http.StatusUnauthorized, ErrUnauthenticated},
		{"invalid credentials", InvalidCredentials("bad password"), "INVALID_CREDENTIALS", http.StatusUnauthorized, ErrInvalidCredentials},
		{"invalid token", InvalidToken("expired"), "INVALID_TOKEN", http.StatusUnauthorized, ErrInvalidToken},
		{"wrong login method", WrongLoginMethod("use google"), "WRONG_LOGIN_METHOD", http.StatusUnauthorized, ErrWrongLoginMethod},
		{"misconfigured", Misconfigured("ACCESS_TOKEN_SECRET is not set"), "MISCONFIGURED", http.StatusInternalServerError, ErrMisconfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

func TestAlreadyExists_MessageNamesField(t *testing.T) {
	err := AlreadyExists("user", "email", "a@b.com")
	assert.Contains(t, err.Message, "email")
	assert.Contains(t, err.Message, "a@b.com")
}

func TestMisconfigured_HidesDetailFromMessage(t *testing.T) {
	err := Misconfigured("TOKEN_SECRET is not set")
	assert.NotContains(t, err.Message, "TOKEN_SECRET")
	assert.Contains(t, err.Error(), "TOKEN_SECRET")
}

func TestInternal(t *testing.T) {
	inner := fmt.Errorf("segfault")
	err := Internal(inner)
	require.NotNil(t, err)
	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "segfault")
}

func TestHTTPStatus_SentinelErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrInvalidToken, http.StatusUnauthorized},
		{ErrWrongLoginMethod, http.StatusUnauthorized},
		{ErrMisconfigured, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrInvalidToken)
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(wrapped))
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("unknown")))
}

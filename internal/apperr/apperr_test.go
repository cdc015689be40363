package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhadat/listing-auth/internal/auth"
)

func TestStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeInvalidTokenType:   http.StatusUnauthorized,
		CodeTokenExpired:       http.StatusUnauthorized,
		CodeInvalidCredentials: http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeUserNotFound:       http.StatusNotFound,
		CodeMethodNotAllowed:   http.StatusMethodNotAllowed,
		CodeEmailTaken:         http.StatusConflict,
		CodePhoneTaken:         http.StatusConflict,
		CodeValidation:         http.StatusUnprocessableEntity,
		CodePasswordMismatch:   http.StatusUnprocessableEntity,
		CodeTooManyRequests:    http.StatusTooManyRequests,
		Code("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, Status(code), code)
	}
}

func TestFromMapsTokenErrors(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{auth.ErrTokenMissing, CodeUnauthorized},
		{auth.ErrExpiredToken, CodeTokenExpired},
		{auth.ErrInvalidTokenType, CodeInvalidTokenType},
		{fmt.Errorf("%w: bad signature", auth.ErrMalformedToken), CodeInvalidToken},
		{errors.New("boom"), CodeInternal},
	}
	for _, tc := range cases {
		got := From(tc.err)
		assert.Equal(t, tc.want, got.Code, tc.err.Error())
		assert.ErrorIs(t, got, tc.err)
	}
}

func TestFromKeepsAppErrors(t *testing.T) {
	orig := New(CodeEmailTaken, "This email is already registered")
	wrapped := fmt.Errorf("register: %w", orig)

	assert.Same(t, orig, From(wrapped))
	assert.True(t, HasCode(wrapped, CodeEmailTaken))
	assert.False(t, HasCode(wrapped, CodePhoneTaken))
	assert.Nil(t, From(nil))
}

func TestErrorString(t *testing.T) {
	err := Wrap(errors.New("db down"), CodeInternal, "Internal server error")
	assert.Equal(t, "INTERNAL_SERVER_ERROR: Internal server error: db down", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.Status())

	v := Validation([]FieldError{{Field: "email", Message: "Email không hợp lệ"}})
	assert.Equal(t, CodeValidation, v.Code)
	assert.Len(t, v.Details, 1)
}

package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("finds code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "territory not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})

	t.Run("wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("db down")
		err := Wrap(cause, CodeInternal, "failed to load territory")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to load territory: db down", err.Error())
	})

	t.Run("errors.Is matches on code and message", func(t *testing.T) {
		err := New(CodeUnauthorized, "invalid token")
		require.ErrorIs(t, err, New(CodeUnauthorized, "invalid token"))
		assert.NotErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:          http.StatusBadRequest,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeForbidden:           http.StatusForbidden,
		CodeForbiddenSelfDelete: http.StatusForbidden,
		CodeNotFound:            http.StatusNotFound,
		CodeInvalidState:        http.StatusConflict,
		CodeRateLimited:         http.StatusTooManyRequests,
		CodeContention:          http.StatusInternalServerError,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), "code %s", code)
	}
}

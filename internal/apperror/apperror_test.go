package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:           http.StatusBadRequest,
		KindUnauthorized:         http.StatusUnauthorized,
		KindForbidden:            http.StatusForbidden,
		KindNotFound:             http.StatusNotFound,
		KindConflict:             http.StatusConflict,
		KindPayloadTooLarge:      http.StatusRequestEntityTooLarge,
		KindUnsupportedMediaType: http.StatusUnsupportedMediaType,
		KindRateLimited:          http.StatusTooManyRequests,
		KindInternal:             http.StatusInternalServerError,
	}
	for k, want := range cases {
		assert.Equal(t, want, k.Status(), "kind %d", k)
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	base := Conflict(CodeEmailInUse, "email already registered")
	wrapped := fmt.Errorf("register: %w", base)

	ae, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeEmailInUse, ae.Code)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestWrapKeepsOriginalUntouched(t *testing.T) {
	base := NotFound(CodeNotFound, "plant not found")
	cause := errors.New("sql: no rows")
	w := base.Wrap(cause)

	assert.Nil(t, base.Err)
	assert.ErrorIs(t, w, cause)
	assert.Contains(t, w.Error(), "plant not found")
}

func TestInternalHidesCause(t *testing.T) {
	e := Internal(errors.New("dial tcp: refused"))
	assert.Equal(t, CodeInternal, e.Code)
	assert.Equal(t, "internal server error", e.Message)
	assert.Equal(t, http.StatusInternalServerError, e.Status())
}

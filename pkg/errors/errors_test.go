package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	e := NotFound("book", "42")
	assert.Contains(t, e.Error(), "NOT_FOUND")
	assert.Contains(t, e.Error(), "book with id 42 not found")
}

func TestAppError_Unwrap(t *testing.T) {
	assert.ErrorIs(t, NotFound("book", "1"), ErrNotFound)
	assert.ErrorIs(t, InvalidInput("bad"), ErrInvalidInput)
	assert.ErrorIs(t, Unauthorized("nope"), ErrUnauthorized)
	assert.ErrorIs(t, Forbidden("nope"), ErrForbidden)
	assert.ErrorIs(t, Conflict("already"), ErrConflict)
	assert.ErrorIs(t, PriceMismatch("stale"), ErrPriceMismatch)
	assert.ErrorIs(t, SessionExpired(), ErrSessionExpired)
}

func TestNetwork_WrapsBothSentinelsAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := Network(cause)

	assert.ErrorIs(t, e, ErrNetwork)
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, 0, e.Status)
}

func TestHTTPStatus_FromAppError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("book", "1")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(PriceMismatch("stale")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(SessionExpired()))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflict("dup")))
}

func TestHTTPStatus_FromWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrForbidden)
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
}

func TestHTTPStatus_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrConflict, "saving registry")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "saving registry")
}

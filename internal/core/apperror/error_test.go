package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactories(t *testing.T) {
	v := NewValidation("bad input")
	assert.Equal(t, CodeValidation, v.Code)
	assert.Equal(t, http.StatusBadRequest, v.HTTPStatus)

	nf := NewNotFound("customer", 42)
	assert.Equal(t, CodeNotFound, nf.Code)
	assert.Equal(t, http.StatusNotFound, nf.HTTPStatus)
	assert.Equal(t, "customer", nf.Details["entity"])
	assert.Equal(t, 42, nf.Details["id"])

	cf := NewConflict("customer has orders and cannot be deleted")
	assert.Equal(t, CodeConflict, cf.Code)
	assert.Equal(t, http.StatusConflict, cf.HTTPStatus)

	in := NewInternal(errors.New("boom"))
	assert.Equal(t, CodeInternal, in.Code)
	assert.Equal(t, http.StatusInternalServerError, in.HTTPStatus)
	assert.Contains(t, in.Error(), "boom")
}

func TestWithDetailAndCause(t *testing.T) {
	cause := errors.New("underlying")
	err := NewValidation("invalid id").
		WithDetail("id", "abc").
		WithCause(cause)

	assert.Equal(t, "abc", err.Details["id"])
	assert.ErrorIs(t, err, cause)
}

func TestHelpersOnWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFound("order", 7))

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.False(t, IsConflict(wrapped))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(wrapped))

	appErr, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("plain")
	assert.False(t, IsAppError(err))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
}

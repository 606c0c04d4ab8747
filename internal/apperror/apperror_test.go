package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{Unauthorized(), http.StatusUnauthorized},
		{BadRequest("amount must be positive"), http.StatusBadRequest},
		{Conflict("username or email already exists"), http.StatusConflict},
		{NotFound(), http.StatusNotFound},
		{Internal(errors.New("connection reset")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode(), tt.err.Error())
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("pq: relation \"users\" does not exist")
	err := Internal(cause)

	assert.Equal(t, "Internal Server Error", err.PublicMessage())
	assert.ErrorIs(t, err, cause)
}

func TestFromWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("fund loan: %w", BadRequest("loan not available for funding"))

	got := From(wrapped)
	assert.Equal(t, KindBadRequest, got.Kind)
	assert.Equal(t, "loan not available for funding", got.PublicMessage())
	assert.True(t, Is(wrapped, KindBadRequest))
	assert.False(t, Is(wrapped, KindNotFound))

	plain := From(errors.New("boom"))
	assert.Equal(t, KindInternal, plain.Kind)
}

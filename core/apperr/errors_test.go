package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"vault-inventory/core/apperr"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, http.StatusOK},
		{"Validation", apperr.Validationf("bad %s", "input"), http.StatusBadRequest},
		{"NotFound", apperr.NotFoundf("item %d", 1), http.StatusNotFound},
		{"Conflict", apperr.Conflictf("dup"), http.StatusConflict},
		{"Integrity", apperr.Integrityf("tampered"), http.StatusUnprocessableEntity},
		{"Retryable", apperr.Retryable(errors.New("lock wait")), http.StatusServiceUnavailable},
		{"Wrapped", fmt.Errorf("outer: %w", apperr.NotFoundf("x")), http.StatusNotFound},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.HTTPStatus(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	base := errors.New("deadlock")
	err := apperr.Retryable(base)

	assert.ErrorIs(t, err, apperr.ErrRetryable)
	assert.ErrorIs(t, err, base)
	assert.Same(t, err, apperr.Retryable(err))
	assert.NoError(t, apperr.Retryable(nil))
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"studiorit/internal/apperr"
	"studiorit/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.NotFound("task"), http.StatusNotFound, "not_found"},
		{apperr.Forbidden("no"), http.StatusForbidden, "forbidden"},
		{apperr.Validation("title", "required"), http.StatusBadRequest, "validation"},
		{apperr.Conflict("a", "b", ""), http.StatusConflict, "conflict"},
		{fmt.Errorf("wrap: %w", apperr.Conflict("a", "b", "")), http.StatusConflict, "conflict"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{services.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range tests {
		status, code := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

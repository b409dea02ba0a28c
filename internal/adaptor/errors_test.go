package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"carpool-api/internal/apperror"
	"carpool-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{apperror.Validation("bad seats"), http.StatusBadRequest},
		{apperror.InvalidTransition("ride is completed"), http.StatusBadRequest},
		{apperror.Unauthenticated("who are you"), http.StatusUnauthorized},
		{apperror.Forbidden("not yours"), http.StatusForbidden},
		{apperror.NotFound("no ride"), http.StatusNotFound},
		{apperror.Duplicate("already requested"), http.StatusConflict},
		{apperror.Capacity("ride is full"), http.StatusConflict},
		{apperror.Conflict("ride is busy"), http.StatusConflict},
		{apperror.Invariant("seat counter"), http.StatusInternalServerError},
		{fmt.Errorf("approve: %w", apperror.Capacity("wrapped")), http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	log := zaptest.NewLogger(t)
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, log, tc.err, "test")
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, zaptest.NewLogger(t), errors.New("pq: password authentication failed"), "list rides")

	var body utils.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Status)
	assert.Equal(t, "Internal server error", body.Message)
}

func TestWriteErrorIncludesFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperror.Invalid(map[string]string{"email": "Invalid email format"}, "email: Invalid email format")
	writeError(rec, zaptest.NewLogger(t), err, "register")

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format", body.Errors["email"])
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/rides?page=abc&date_from=2026-05-01&date_to=yesterday", nil)

	_, err := queryInt(r, "page", 1)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	n, err := queryInt(r, "per_page", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	from, err := queryTime(r, "date_from")
	require.NoError(t, err)
	assert.Equal(t, 2026, from.Year())

	_, err = queryTime(r, "date_to")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

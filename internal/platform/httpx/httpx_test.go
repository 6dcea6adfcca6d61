package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"validation", shared.Errorf(shared.ErrValidation, "title is required"), http.StatusBadRequest, "title is required"},
		{"conflict", fmt.Errorf("auth: %w", shared.Errorf(shared.ErrConflict, "Email already registered")), http.StatusConflict, "Email already registered"},
		{"credentials", shared.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"unauthenticated", shared.ErrUnauthenticated, http.StatusUnauthorized, "could not validate credentials"},
		{"not found", shared.Errorf(shared.ErrNotFound, "Todo not found"), http.StatusNotFound, "Todo not found"},
		{"internal", errors.New("dial tcp 10.0.0.5:5432: connection refused"), http.StatusInternalServerError, "An unexpected error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			env := decodeEnvelope(t, rr)
			assert.Equal(t, tc.status, env.StatusCode)
			assert.Equal(t, tc.detail, env.Detail)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestUnauthorizedSetsChallenge(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.ErrUnauthenticated)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Title string `json:"title"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Buy milk","user_id":"ignored"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "Buy milk", target.Title)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	err := DecodeJSON(req, &target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":42}`))
	err = DecodeJSON(req, &target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"title"`)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	assert.ErrorIs(t, DecodeJSON(req, &target), ErrEmptyBody)
}

func TestDecodeJSONSingleValue(t *testing.T) {
	for name, body := range map[string]string{
		"trailing junk":  `{"title":"x"} trailing-junk`,
		"second value":   `{"title":"x"}{"title":"y"}`,
		"stray brace":    `{"title":"x"}}`,
		"trailing array": `{"title":"x"} []`,
	} {
		t.Run(name, func(t *testing.T) {
			var target struct {
				Title string `json:"title"`
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			assert.ErrorIs(t, DecodeJSON(req, &target), shared.ErrValidation)
		})
	}

	var target struct {
		Title string `json:"title"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{\"title\":\"x\"}\n\t "))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "x", target.Title)
}

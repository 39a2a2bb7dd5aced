package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"CardKeeper/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_TokenIssued(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := `{"client_id":"cardkeeper","client_secret":"` + testClientSecret + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.CookieName {
			cookie = c
		}
	}
	if assert.NotNil(t, cookie) {
		assert.Equal(t, resp.Token, cookie.Value)
	}
}

func TestAuth_TokenRejected(t *testing.T) {
	router, _, _ := newTestRouter(t)

	cases := map[string]string{
		"wrong secret": `{"client_id":"cardkeeper","client_secret":"nope"}`,
		"wrong client": `{"client_id":"other","client_secret":"` + testClientSecret + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewBufferString(body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPing(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

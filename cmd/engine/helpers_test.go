package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomToken(t *testing.T) {
	a, err := randomToken(16)
	require.NoError(t, err)
	b, err := randomToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestShutdownHandlerGuards(t *testing.T) {
	token := "secret"
	h := shutdownHandler(&token, &http.Server{})

	cases := []struct {
		name   string
		method string
		remote string
		token  string
		want   int
	}{
		{"wrong method", http.MethodGet, "127.0.0.1:5000", "secret", http.StatusMethodNotAllowed},
		{"remote host", http.MethodPost, "10.0.0.7:5000", "secret", http.StatusForbidden},
		{"missing token", http.MethodPost, "127.0.0.1:5000", "", http.StatusUnauthorized},
		{"bad token", http.MethodPost, "[::1]:5000", "nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/shutdown", nil)
			req.RemoteAddr = tc.remote
			if tc.token != "" {
				req.Header.Set("X-Shutdown-Token", tc.token)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

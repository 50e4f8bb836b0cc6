package api

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestLogger_MasksAccessToken(t *testing.T) {
	var buf bytes.Buffer
	h := requestLogger(log.New(&buf, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Handlers still see the real token.
		assert.Equal(t, "v4.local.secret-token", r.URL.Query().Get("access_token"))
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?access_token=v4.local.secret-token&since=4", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.NotContains(t, line, "secret-token")
	assert.Contains(t, line, "access_token=REDACTED")
	assert.Contains(t, line, "since=4")
	assert.Contains(t, line, "204")
}

func TestRedactURI(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		changed bool
	}{
		{"/health", "/health", false},
		{"/api/v1/games?q=zelda", "/api/v1/games?q=zelda", false},
		{"/api/v1/events?access_token=abc", "/api/v1/events?access_token=REDACTED", true},
	}
	for _, tt := range tests {
		got, changed := redactURI(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.changed, changed, tt.in)
	}
}

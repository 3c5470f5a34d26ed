package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRateLimit_FailsOpen(t *testing.T) {
	h := RateLimit(failingLimiter{}, denyWithError, zap.NewNop())(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Denies(t *testing.T) {
	h := RateLimit(denyAll{}, denyWithMessage, zap.NewNop())(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests. Please try again later.", decodeBody[MessageResponse](t, rec).Message)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		remote string
		want   string
	}{
		{"forwarded first hop", "198.51.100.7, 10.0.0.1", "10.0.0.1:443", "198.51.100.7"},
		{"remote addr", "", "192.0.2.10:5555", "192.0.2.10"},
		{"remote without port", "", "192.0.2.11", "192.0.2.11"},
		{"nothing", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

func TestSessionMiddleware_ReplacesMalformedCookie(t *testing.T) {
	var seen string
	h := SessionMiddleware(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, seen, cookies[0].Value)
		assert.True(t, cookies[0].Secure)
	}
	assert.NotEqual(t, "not-a-uuid", seen)
}

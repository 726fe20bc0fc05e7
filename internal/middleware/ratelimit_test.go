package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/timetrack/timeentries/internal/cache"
)

type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	lastIP string
}

func (s *stubLimiter) CheckIPRateLimit(ctx context.Context, ip string, rps, burst int) (*cache.RateLimitResult, error) {
	s.lastIP = ip
	return s.result, s.err
}

func TestRateLimitIP(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		enabled    bool
		limiter    *stubLimiter
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "disabled passes through",
			enabled:    false,
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: false}},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "allowed",
			enabled:    true,
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: true, Remaining: 4}},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:       "denied",
			enabled:    true,
			limiter:    &stubLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: 2 * time.Second}},
			wantStatus: http.StatusTooManyRequests,
			wantCalled: false,
		},
		{
			name:       "limiter error fails open",
			enabled:    true,
			limiter:    &stubLimiter{err: errors.New("redis down")},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			handler := RateLimitIP(RateLimitConfig{
				Logger:  logger,
				Limiter: tt.limiter,
				Enabled: tt.enabled,
				RPS:     1,
				Burst:   1,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "198.51.100.7:5555"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("next called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantStatus == http.StatusTooManyRequests {
				if got := rec.Body.String(); got != `{"error":"Too Many Requests"}` {
					t.Errorf("body = %q", got)
				}
				if got := rec.Header().Get("Retry-After"); got != "2" {
					t.Errorf("Retry-After = %q, want 2", got)
				}
			}
			if tt.enabled && tt.limiter.lastIP != "198.51.100.7" {
				t.Errorf("limiter saw ip %q, want 198.51.100.7", tt.limiter.lastIP)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"10.0.0.1:1234", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"10.0.0.2", "10.0.0.2"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := getClientIP(req); got != tt.want {
			t.Errorf("getClientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

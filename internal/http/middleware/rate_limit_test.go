package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
)

type stubCounter struct {
	count int64
	err   error
	keys  []string
}

func (c *stubCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.keys = append(c.keys, key)
	c.count++
	return c.count, c.err
}

func newLimiter(c middleware.Counter, max int) *middleware.RateLimiter {
	return &middleware.RateLimiter{
		Counter:  c,
		Max:      max,
		Window:   time.Hour,
		Renderer: &response.Renderer{},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsUnderMax(t *testing.T) {
	limiter := newLimiter(&stubCounter{}, 3)
	handler := limiter.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverMax(t *testing.T) {
	limiter := newLimiter(&stubCounter{count: 3}, 3)
	handler := limiter.Middleware(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestRateLimiterFailsOpenOnCounterError(t *testing.T) {
	limiter := newLimiter(&stubCounter{err: errors.New("redis down")}, 1)
	handler := limiter.Middleware(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when counter is unavailable", rec.Code)
	}
}

func TestRateLimiterKeysByForwardedIP(t *testing.T) {
	counter := &stubCounter{}
	handler := newLimiter(counter, 10).Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(counter.keys) != 1 || counter.keys[0] != "rl:ip:203.0.113.9" {
		t.Errorf("keys = %v, want [rl:ip:203.0.113.9]", counter.keys)
	}
}

func TestRateLimiterSeparatesClients(t *testing.T) {
	counter := middleware.NewMemoryCounter()
	handler := newLimiter(counter, 1).Middleware(okHandler())

	for i, ip := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("%s:%d", ip, 40000+i)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("client %s: status = %d, want 200", ip, rec.Code)
		}
	}
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trailpost/tours-api/internal/http/middleware"
	"github.com/trailpost/tours-api/internal/http/response"
)

func TestRecoveryAnswersThenStopsProcess(t *testing.T) {
	fatals := 0
	rc := &middleware.Recovery{
		Renderer: &response.Renderer{Production: true},
		OnFatal:  func() { fatals++ },
	}
	handler := rc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Errorf("body = %s, panic value leaked in production", rec.Body)
	}
	if fatals != 1 {
		t.Errorf("fatal hook ran %d times, want 1: a panic must stop the process", fatals)
	}
}

func TestRecoveryPassThrough(t *testing.T) {
	rc := &middleware.Recovery{
		Renderer: &response.Renderer{},
		OnFatal:  func() { t.Error("fatal hook ran without a panic") },
	}
	handler := rc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

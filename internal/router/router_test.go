package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/config"
	"fitsync/internal/handler"
	"fitsync/internal/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:   time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     100,
		AuthRateLimitRPM: 20,
	}
}

func testHandlers() Handlers {
	return Handlers{
		OAuth: handler.NewOAuthHandler(nil, nil, ""),
		Fit:   handler.NewFitHandler(nil),
		User:  handler.NewUserHandler(nil),
		Step:  handler.NewStepHandler(nil),
		Docs:  handler.NewDocsHandler(),
	}
}

func TestHealth(t *testing.T) {
	r := New(testConfig(), testHandlers(), func(context.Context) error { return nil }, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestHealthUnavailable(t *testing.T) {
	r := New(testConfig(), testHandlers(), func(context.Context) error { return errors.New("db down") }, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotContains(t, rec.Body.String(), "db down")
}

func TestParameterValidationRunsBeforeServices(t *testing.T) {
	r := New(testConfig(), testHandlers(), nil, nil)

	for _, target := range []string{"/auth/login", "/get/token?id=x", "/fit/data", "/weekly-steps"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestUnknownRoute(t *testing.T) {
	r := New(testConfig(), testHandlers(), nil, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/auth/login", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := New(testConfig(), testHandlers(), nil, metrics.New())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `route="/health"`)
}

func TestDocsRoutes(t *testing.T) {
	r := New(testConfig(), testHandlers(), nil, nil)

	for _, target := range []string{"/openapi.yaml", "/docs"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)
	}
}

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/payroll-csv/internal/api/handlers"
	"github.com/dvloznov/payroll-csv/internal/api/middleware"
	"github.com/dvloznov/payroll-csv/internal/config"
	"github.com/dvloznov/payroll-csv/internal/extract"
	"github.com/dvloznov/payroll-csv/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testRouter() http.Handler {
	m := metrics.New()
	h := handlers.NewExtractHandler(handlers.Config{
		Options:        extract.DefaultOptions(),
		MaxUploadBytes: 1 << 20,
		Metrics:        m,
	}, zerolog.Nop())
	srv := config.ServerConfig{Port: "0", MaxUploadMB: 1, RateLimitPerSecond: 1, RateLimitBurst: 1}
	return newRouter(h, m, srv, zerolog.Nop())
}

func TestRouter_Routes(t *testing.T) {
	router := testRouter()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/extract", http.StatusMethodNotAllowed},
		{http.MethodOptions, "/api/extract", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRouter_RateLimitsUploads(t *testing.T) {
	router := testRouter()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/extract", nil))
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/extract", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

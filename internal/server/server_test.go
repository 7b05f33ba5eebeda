package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tastebook/internal/config"
	"tastebook/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestMetricsAndTracingWiring(t *testing.T) {
	s := &Server{
		config: &config.Config{
			JWTSecret:       "test_secret",
			UploadDir:       t.TempDir(),
			RecipeListLimit: 20,
		},
		promMiddleware: middleware.InitMetrics("tastebook-test"),
	}

	app := fiber.New()
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// A request passes through the metrics and tracing middleware
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	// The Prometheus scrape endpoint is registered and exposes request metrics
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err = app.Test(req)
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "# HELP"))
	assert.Contains(t, string(body), "http_requests_total")
}

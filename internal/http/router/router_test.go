package router

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "leadlift_backend/internal/http"
	"leadlift_backend/platform/logger"
	"leadlift_backend/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type testConfig struct{ origins []string }

func (testConfig) GetHTTPAddr() string { return ":0" }
func (c testConfig) GetCORSOrigins() []string { return c.origins }
func (testConfig) GetCORSAllowCreds() bool { return true }
func (testConfig) GetIngestRatePerMinute() int { return 60 }
func (testConfig) GetIngestBurst() int { return 10 }
func (testConfig) GetJWTAccessSecret() string { return "secret" }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/submit/:clientId", func(c *gin.Context) { c.Status(http.StatusCreated) })
	ctx.Protected.GET("/clients", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testConfig{origins: []string{"http://localhost:5173"}},
		Logger:  logger.NewWithWriter("production", &bytes.Buffer{}),
		Health:  health,
		Metrics: metrics.New(),
		Modules: []apphttp.Module{echoModule{}},
	})
}

func TestHealthReportsDatabaseState(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(pinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	newEngine(pinger{err: errors.New("down")}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubmitAcceptsAnyOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/submit/a1b2c3d4", nil)
	req.Header.Set("Origin", "https://customer-site.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	newEngine(nil).ServeHTTP(w, req)

	assert.Equal(t, "https://customer-site.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDashboardRoutesRejectUnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Origin", "https://customer-site.example")
	w := httptest.NewRecorder()
	newEngine(nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	newEngine(nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "coldlead_backend/internal/http"
	"coldlead_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testRouterConfig struct{}

func (testRouterConfig) GetCORSOrigins() []string { return []string{"https://dash.example.com"} }
func (testRouterConfig) GetCronSecret() string    { return "s3cret" }

type failingHealth struct{}

func (failingHealth) Ping(context.Context) error { return errors.New("down") }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }
func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.V1.Group("/ping")
	g.Use(ctx.TriggerAuth)
	g.GET("", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func TestRouterMountsModulesBehindTriggerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := New(&apphttp.App{Config: testRouterConfig{}, Logger: logger.Discard(), Modules: []apphttp.Module{pingModule{}}})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("expected pong, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	New(&apphttp.App{Config: testRouterConfig{}, Logger: logger.Discard()}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without a database, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	New(&apphttp.App{Config: testRouterConfig{}, Logger: logger.Discard(), Health: failingHealth{}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rec.Code)
	}
}

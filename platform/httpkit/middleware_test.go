package httpkit

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coldlead_backend/platform/apperr"
	"coldlead_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testTriggerConfig struct{ secret string }

func (c testTriggerConfig) GetCronSecret() string { return c.secret }

func newSecretEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(SecretRequired(testTriggerConfig{secret: secret}, logger.Discard()))
	engine.GET("/run", func(c *gin.Context) { c.String(http.StatusOK, "ran") })
	return engine
}

func TestSecretRequired(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"valid token", "s3cret", "Bearer s3cret", http.StatusOK},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"basic scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"empty secret rejects everything", "", "Bearer ", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := newSecretEngine(tc.secret)
			req := httptest.NewRequest(http.MethodGet, "/run", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusUnauthorized && rec.Body.String() == "ran" {
				t.Fatal("handler ran despite rejected token")
			}
		})
	}
}

func TestRequestIDReusesCallerHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestRequestLoggerReportsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	engine := gin.New()
	engine.Use(RequestLogger(logger.NewWithWriter("production", &buf)))
	engine.GET("/boom", func(c *gin.Context) {
		HandleError(c, apperr.Upstream("lead sync failed", errors.New("calendly down")))
	})
	engine.GET("/bad", func(c *gin.Context) {
		HandleError(c, apperr.BadRequest("limit must be an integer between 1 and 100"))
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"msg":"http_error"`) || !strings.Contains(buf.String(), "calendly down") {
		t.Fatalf("expected http_error with cause, got %s", buf.String())
	}

	buf.Reset()
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bad", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if strings.Contains(buf.String(), "http_error") {
		t.Fatalf("client errors must not be logged as http_error: %s", buf.String())
	}
}

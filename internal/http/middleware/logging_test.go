package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	// No incoming ID: a fresh UUID is minted.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	rid := w.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(rid); err != nil {
		t.Fatalf("generated id %q is not a uuid: %v", rid, err)
	}

	// An incoming ID is reused verbatim.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-abc")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "trace-abc" {
		t.Errorf("propagated id = %q", got)
	}
}

func TestRecoveryRendersJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"internal_error"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestLoggerFromFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatal("fallback logger is nil")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Errorf("disabled truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("short truncate = %q", got)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newSecuredRouter(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestSecurityHeadersBaseline(t *testing.T) {
	r := newSecuredRouter(SecurityOptions{EnablePolicy: true, NoStore: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("nosniff missing")
	}
	if h.Get("X-Frame-Options") != "DENY" {
		t.Errorf("frame options = %q", h.Get("X-Frame-Options"))
	}
	if h.Get("Referrer-Policy") != "no-referrer" {
		t.Errorf("referrer policy = %q", h.Get("Referrer-Policy"))
	}
	if h.Get("Permissions-Policy") == "" {
		t.Error("permissions policy missing")
	}
	if h.Get("Cache-Control") != "no-store" {
		t.Errorf("cache control = %q", h.Get("Cache-Control"))
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Error("HSTS emitted without opt-in")
	}
}

func TestSecurityHeadersHSTSOnlyOverHTTPS(t *testing.T) {
	r := newSecuredRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour})

	// Plain HTTP: no HSTS.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS emitted for plain HTTP")
	}

	// Proxied HTTPS: HSTS with the configured max-age.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Errorf("HSTS = %q", got)
	}
}

func TestStrconvItoa(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 86400: "86400", -12: "-12"}
	for in, want := range cases {
		if got := strconvItoa(in); got != want {
			t.Errorf("strconvItoa(%d) = %q, want %q", in, got, want)
		}
	}
}

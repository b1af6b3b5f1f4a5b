package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keyFn := KeyByUserOrIP()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:40000"
	if got := keyFn(c); got != "ip:203.0.113.7" {
		t.Errorf("anonymous key = %q", got)
	}

	c.Set("userID", "u-42")
	if got := keyFn(c); got != "user:u-42" {
		t.Errorf("user key = %q", got)
	}

	// Empty user IDs fall through to the IP namespace.
	c.Set("userID", "")
	if got := keyFn(c); got != "ip:203.0.113.7" {
		t.Errorf("empty user key = %q", got)
	}
}

func TestRateLimiterBurstThen429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 2, KeyByUserOrIP())

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.1:55000"
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i+1, w.Code)
		}
	}

	w := do()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q", got)
	}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "rate_limited" || body.Message != "rate limit exceeded" {
		t.Errorf("body = %+v", body)
	}
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 1, KeyByUserOrIP())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set("userID", uid)
		}
	})
	r.Use(rl.Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(uid string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Test-User", uid)
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := do("alpha"); got != http.StatusOK {
		t.Fatalf("alpha first = %d", got)
	}
	if got := do("alpha"); got != http.StatusTooManyRequests {
		t.Fatalf("alpha second = %d, want 429", got)
	}
	// A different user is unaffected by alpha's exhausted bucket.
	if got := do("beta"); got != http.StatusOK {
		t.Fatalf("beta first = %d, want 200", got)
	}
}

func TestNewRateLimiterCoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Errorf("burst = %d, want 1", rl.burst)
	}
}

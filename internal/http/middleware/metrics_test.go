package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/courses/:id", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses/real-estate-law", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	after := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/courses/:id", "200"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestSessionGaugeAndFallbackCounter(t *testing.T) {
	SetSessionGauge(7)
	if got := testutil.ToFloat64(sessionsLive); got != 7 {
		t.Errorf("sessions gauge = %v", got)
	}
	SetSessionGauge(0)

	before := testutil.ToFloat64(chatFallbacks.WithLabelValues("not_configured"))
	CountChatFallback("not_configured")
	after := testutil.ToFloat64(chatFallbacks.WithLabelValues("not_configured"))
	if after != before+1 {
		t.Errorf("fallback counter = %v, want %v", after, before+1)
	}
}

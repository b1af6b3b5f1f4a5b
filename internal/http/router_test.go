package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Joshua-Garn/real-education-backend/internal/auth"
	"github.com/Joshua-Garn/real-education-backend/internal/chat"
	"github.com/Joshua-Garn/real-education-backend/internal/config"
	"github.com/Joshua-Garn/real-education-backend/internal/http/middleware"
	"github.com/Joshua-Garn/real-education-backend/internal/repo"
)

// echoCompleter is a minimal chat backend for wiring tests.
type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, turns []chat.Turn) (string, error) {
	return "echo: " + turns[len(turns)-1].Content, nil
}

func testConfig() config.Config {
	var cfg config.Config
	cfg.GinMode = gin.TestMode
	cfg.APIBasePath = "/api/v1"
	cfg.Session.TTL = time.Hour
	cfg.RateRPS = 1000
	cfg.RateBurst = 1000
	cfg.OTEL.ServiceName = "real-education-backend-test"
	return cfg
}

// newTestServer wires the full engine: middleware chain, pages, and API,
// backed by an isolated in-memory database.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repo.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mgr := auth.NewManager(db, auth.NewStore(0), auth.NewTokenIssuer("router-test-secret", time.Hour), nil)
	t.Cleanup(mgr.Close)

	r := gin.New()
	RegisterRoutes(r, mgr, chat.NewRegistry(echoCompleter{}, 0), testConfig())
	return r
}

func get(r *gin.Engine, path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, m := range mutate {
		m(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("ACAO = %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id missing")
	}
}

func TestHomePageRenders(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Master Real Estate Education") {
		t.Error("landing headline missing")
	}
}

func TestSigninAliases(t *testing.T) {
	r := newTestServer(t)

	for _, path := range []string{"/signin", "/login"} {
		w := get(r, path)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "Sign In") {
			t.Errorf("%s did not render the signin page", path)
		}
	}
}

func TestDashboardRedirectsAnonymous(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/dashboard")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/signup" {
		t.Errorf("Location = %q", loc)
	}
}

func TestSignupThenDashboard(t *testing.T) {
	r := newTestServer(t)

	body := `{"name":"Jane Smith","email":"jane@example.com","password":"hunter22","confirmPassword":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("no session token returned")
	}

	// The dashboard accepts the session via cookie.
	w2 := get(r, "/dashboard", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: resp.Token})
	})
	if w2.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", w2.Code)
	}
	if !strings.Contains(w2.Body.String(), "Jane Smith") {
		t.Error("dashboard missing the signed-in user")
	}

	// The API accepts the same token as a bearer credential.
	w3 := get(r, "/api/v1/auth/me", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+resp.Token)
	})
	if w3.Code != http.StatusOK {
		t.Fatalf("me status = %d, body = %s", w3.Code, w3.Body.String())
	}
	if !strings.Contains(w3.Body.String(), "jane@example.com") {
		t.Errorf("me body = %s", w3.Body.String())
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	r := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPatch, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/chat/messages"},
		{http.MethodGet, "/api/v1/chat/messages"},
		{http.MethodPut, "/api/v1/progress"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", tc.method, tc.path, w.Code)
		}
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	r := newTestServer(t)

	w := get(r, "/no/such/route")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	r := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"method_not_allowed"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	r := newTestServer(t)

	get(r, "/health") // generate at least one sample
	w := get(r, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Error("request counter not exported")
	}
}

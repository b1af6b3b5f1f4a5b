// Server-rendered portal pages.
//
// The portal's outer surface is a small set of HTML pages: the marketing
// home page, an about page, the signup and signin forms, and the course
// dashboard. Pages are rendered from templates embedded in the binary so
// deployment stays a single artifact.
//
// Routes:
//   - GET /           (home)
//   - GET /about
//   - GET /signup
//   - GET /signin     (also mounted at /login)
//   - GET /dashboard  (redirects to /signup when not signed in)
package httpapi

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Joshua-Garn/real-education-backend/internal/auth"
	"github.com/Joshua-Garn/real-education-backend/internal/courses"
	"github.com/Joshua-Garn/real-education-backend/internal/http/middleware"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Pages renders the portal's HTML surface.
type Pages struct {
	mgr *auth.Manager
	tpl *template.Template
}

// NewPages parses the embedded templates and binds the page renderer to the
// account manager (used only to resolve the caller's session).
func NewPages(mgr *auth.Manager) *Pages {
	tpl := template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
	return &Pages{mgr: mgr, tpl: tpl}
}

// Register mounts the page routes on the engine root.
func (p *Pages) Register(r *gin.Engine) {
	r.GET("/", p.Home)
	r.GET("/about", p.About)
	r.GET("/signup", p.Signup)
	r.GET("/signin", p.Signin)
	r.GET("/login", p.Signin)
	r.GET("/dashboard", p.Dashboard)
}

// pageData is the template context shared by all pages.
type pageData struct {
	Title    string
	Active   string
	SignedIn bool
	User     *auth.Principal
	Modules  []courses.Module
	Stats    courses.Stats
}

// session returns the caller's live session, or nil.
func (p *Pages) session(c *gin.Context) *auth.Session {
	tok := middleware.TokenFromRequest(c)
	if tok == "" {
		return nil
	}
	return p.mgr.Resolve(c.Request.Context(), tok)
}

// render executes one named page template with a populated context.
func (p *Pages) render(c *gin.Context, name, title, active string) {
	data := pageData{Title: title, Active: active}
	if sess := p.session(c); sess != nil {
		data.SignedIn = true
		principal := sess.Principal
		data.User = &principal
	}
	p.write(c, name, data)
}

func (p *Pages) write(c *gin.Context, name string, data pageData) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := p.tpl.ExecuteTemplate(c.Writer, name, data); err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Str("template", name).Msg("page render failed")
	}
}

// Home renders the marketing landing page.
func (p *Pages) Home(c *gin.Context) {
	p.render(c, "home.tmpl", "Real Education", "home")
}

// About renders the about page.
func (p *Pages) About(c *gin.Context) {
	p.render(c, "about.tmpl", "About | Real Education", "about")
}

// Signup renders the account-creation form.
func (p *Pages) Signup(c *gin.Context) {
	p.render(c, "signup.tmpl", "Sign Up | Real Education", "signup")
}

// Signin renders the login form. Mounted at both /signin and /login.
func (p *Pages) Signin(c *gin.Context) {
	p.render(c, "signin.tmpl", "Sign In | Real Education", "signin")
}

// Dashboard renders the course dashboard for the signed-in caller. Anonymous
// requests are redirected to the signup page.
func (p *Pages) Dashboard(c *gin.Context) {
	sess := p.session(c)
	if sess == nil {
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	mods := courses.ForProfile(sess.Profile())
	principal := sess.Principal
	p.write(c, "dashboard.tmpl", pageData{
		Title:    "Dashboard | Real Education",
		Active:   "dashboard",
		SignedIn: true,
		User:     &principal,
		Modules:  mods,
		Stats:    courses.Summarize(mods),
	})
}

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
	"github.com/wontivero/infotechLibros/internal/assist"
	"github.com/wontivero/infotechLibros/internal/catalog"
	"github.com/wontivero/infotechLibros/internal/media"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/orders"
	"github.com/wontivero/infotechLibros/internal/store"
)

const sessionName = "desk-session"

// App carries everything the order desk handlers share.
type App struct {
	Store        *store.Store
	Catalog      *catalog.Cache
	Orders       *orders.Cache
	Intake       *orders.Service
	Extractor    *assist.Extractor // nil when no model is configured
	Media        *media.Store
	SessionStore *sessions.CookieStore
	Templates    *TemplateCache
	Limiter      *RateLimiter // optional, guards the model endpoint
	Location     *time.Location
	Now          func() time.Time
}

// Routes registers every page and endpoint. Everything except the login
// pages requires an authenticated staff session.
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", a.LoginGet)
	mux.HandleFunc("POST /login", a.LoginPost)
	mux.HandleFunc("/logout", a.Logout)

	mux.HandleFunc("GET /{$}", a.RequireLogin(a.Desk))
	mux.HandleFunc("POST /orders", a.RequireLogin(a.CreateOrder))
	mux.HandleFunc("POST /actions", a.RequireLogin(a.Dispatch))

	extract := a.Extract
	if a.Limiter != nil {
		extract = a.Limiter.Middleware(extract)
	}
	mux.HandleFunc("POST /assist/extract", a.RequireLogin(extract))

	mux.HandleFunc("GET /board", a.RequireLogin(a.Board))
	mux.HandleFunc("GET /board/export.csv", a.RequireLogin(a.ExportCSV))
	mux.HandleFunc("GET /orders/{id}/label", a.RequireLogin(a.Label))

	mux.HandleFunc("GET /crm", a.RequireLogin(a.CRM))

	mux.HandleFunc("GET /catalog", a.RequireLogin(a.CatalogEditor))
	mux.HandleFunc("POST /catalog", a.RequireLogin(a.CreateBook))
	mux.HandleFunc("POST /catalog/{id}", a.RequireLogin(a.UpdateBook))

	mux.HandleFunc("GET /events/{collection}", a.RequireLogin(a.Events))

	return mux
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.Local
}

// RegisterFuncs adds the helpers the page templates use. Call before Load.
func RegisterFuncs(tc *TemplateCache, loc *time.Location) {
	tc.AddFunc("money", func(d decimal.Decimal) string { return "$" + d.String() })
	tc.AddFunc("date", func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.In(loc).Format("02/01/2006 15:04")
	})
	tc.AddFunc("statusLabel", func(s models.Status) string { return s.Label() })
	tc.AddFunc("suggestedDeposit", catalog.SuggestedDeposit)
	tc.AddFunc("has", func(m map[string]string, key string) bool {
		_, ok := m[key]
		return ok
	})
}

// render executes a page into a buffer so a template error never leaves a
// half-written page behind.
func (a *App) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	tmpl := a.Templates.Get(name)
	if tmpl == nil {
		slog.Error("Template not found", "name", name)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	session, _ := a.SessionStore.Get(r, sessionName)
	if data == nil {
		data = make(map[string]any)
	}
	data["Flashes"] = GetFlash(session)
	data["CsrfField"] = csrf.TemplateField(r)
	data["CsrfToken"] = csrf.Token(r)
	data["Path"] = r.URL.Path
	data["User"] = session.Values["username"]
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("Failed to render template", "name", name, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// redirectWithFlash queues a notice and sends the browser to target.
func (a *App) redirectWithFlash(w http.ResponseWriter, r *http.Request, target string, flashes ...FlashMessage) {
	session, _ := a.SessionStore.Get(r, sessionName)
	for _, f := range flashes {
		session.AddFlash(f)
	}
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// returnTo picks a same-site path to go back to after a POST.
func returnTo(r *http.Request, fallback string) string {
	target := r.FormValue("return")
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\") {
		return target
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

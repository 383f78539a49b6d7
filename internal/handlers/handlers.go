package handlers

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/shopspring/decimal"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	auth         *auth.Service
	templates    fs.FS
	secureCookie bool
	now          func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, authService *auth.Service, templates fs.FS, secureCookie bool) *Handlers {
	return &Handlers{
		db:           db,
		auth:         authService,
		templates:    templates,
		secureCookie: secureCookie,
		now:          time.Now,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication. Anonymous
// requests are redirected to the login page before next runs.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var value string
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			value = cookie.Value
		}

		sess, err := h.auth.Authenticate(r.Context(), value)
		if err != nil {
			if !errors.Is(err, auth.ErrAuthenticationRequired) {
				logger.Log.Error().Err(err).Msg("session lookup failed")
			}
			if value != "" {
				h.clearSessionCookie(w)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		if sess.Renewed {
			h.setSessionCookie(w, sess)
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sess.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, sess *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Cookie,
		Path:     "/",
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Page holds the fields every view shares.
type Page struct {
	Title string
	User  *models.User
	Error string
}

var templateFuncs = template.FuncMap{
	"money": money,
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
}

// money formats an amount with two decimals. Non-finite values, which
// decimal cannot represent, are printed as-is.
func money(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	h.renderStatus(w, r, http.StatusOK, viewName, data)
}

// renderStatus executes the view into a buffer first so a template failure
// still yields a clean 500.
func (h *Handlers) renderStatus(w http.ResponseWriter, r *http.Request, status int, viewName string, data any) {
	tmpl, err := template.New(viewName).Funcs(templateFuncs).ParseFS(h.templates, "base.html", viewName)
	if err != nil {
		logger.Log.Error().Err(err).Str("view", viewName).Msg("template parse failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, target, data); err != nil {
		logger.Log.Error().Err(err).Str("view", viewName).Msg("template execution failed")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.Log.Error().Err(err).Str("op", op).Str("path", r.URL.Path).Msg("request failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

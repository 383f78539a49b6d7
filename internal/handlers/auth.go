package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/logger"
)

// AuthViewModel holds data for the login and register pages.
type AuthViewModel struct {
	Page
	Username string
}

const genericError = "An error occurred. Please try again."

// authMessage maps an auth failure to the message shown on the form.
func authMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		return "Username and password are required", true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password", true
	case errors.Is(err, auth.ErrDuplicateUsername):
		return "Username already exists", true
	default:
		return genericError, false
	}
}

// redirectIfAuthenticated sends users that already hold a valid session to the dashboard.
func (h *Handlers) redirectIfAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	if _, err := h.auth.Authenticate(r.Context(), cookie.Value); err != nil {
		return false
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return true
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}
	h.render(w, r, "login.html", AuthViewModel{Page: Page{Title: "Login"}})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "login.html", "Login", h.auth.Login)
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}
	h.render(w, r, "register.html", AuthViewModel{Page: Page{Title: "Register"}})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, "register.html", "Register", h.auth.Register)
}

// authenticate runs a login or register action and either starts the
// session or re-renders the form with the failure.
func (h *Handlers) authenticate(w http.ResponseWriter, r *http.Request, view, title string,
	action func(ctx context.Context, username, password string) (*auth.Session, error)) {
	vm := AuthViewModel{Page: Page{Title: title}}
	if err := r.ParseForm(); err != nil {
		vm.Error = "Invalid form submission"
		h.render(w, r, view, vm)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	vm.Username = username

	sess, err := action(r.Context(), username, password)
	if err != nil {
		msg, expected := authMessage(err)
		if expected {
			logger.Log.Info().Str("view", view).Str("reason", err.Error()).Msg("authentication rejected")
		} else {
			logger.Log.Error().Err(err).Str("view", view).Msg("authentication failed")
		}
		vm.Error = msg
		h.render(w, r, view, vm)
		return
	}

	logger.Log.Info().Int64("user_id", sess.User.ID).Str("view", view).Msg("session started")
	h.setSessionCookie(w, sess)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			logger.Log.Error().Err(err).Msg("failed to delete session")
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

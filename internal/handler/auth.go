package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/auth"
	"github.com/sakif/storelink/internal/service"
)

const oauthStateCookie = "oauth_state"

// AuthHandler serves sign-up, log-in, log-out, GitHub sign-in and account
// deletion.
//
// DEPENDENCY CHAIN:
//   - svc    *service.AuthService  → credential checks, account storage, tokens
//   - github *auth.GitHubProvider  → OAuth code exchange; nil when not configured
//   - render *Renderer             → pages and flash messages
type AuthHandler struct {
	svc    *service.AuthService
	github *auth.GitHubProvider
	render *Renderer
	secure bool
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil.
func NewAuthHandler(
	svc *service.AuthService,
	github *auth.GitHubProvider,
	render *Renderer,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		github: github,
		render: render,
		secure: secureCookies,
		logger: logger,
	}
}

// HandleSignupForm shows the sign-up form, or sends a logged-in user to
// their dashboard.
//
// HTTP: GET /signup
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, http.StatusOK, "signup", &PageData{Title: "Sign up"})
}

// HandleSignup creates an account and logs the new user in.
//
// HTTP: POST /signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "signup", &PageData{Title: "Sign up"})
		return
	}
	email := r.PostForm.Get("email")

	result, err := h.svc.Signup(r.Context(),
		email,
		r.PostForm.Get("password"),
		r.PostForm.Get("confirm_password"),
	)
	if err != nil {
		h.render.Render(w, r, statusFor(err), "signup", &PageData{
			Title:   "Sign up",
			Email:   email,
			Flashes: []Flash{errorFlash(err, service.MsgSignupFailed)},
		})
		return
	}

	auth.SetSessionCookie(w, result.Token, h.secure)
	h.render.redirectWithFlash(w, r, "/dashboard", FlashSuccess, "Account created successfully!")
}

// HandleLoginForm shows the log-in form. ?next= is carried through a hidden
// field.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, http.StatusOK, "login", &PageData{
		Title: "Log in",
		Next:  auth.SafeNext(r.URL.Query().Get("next"), ""),
	})
}

// HandleLogin checks credentials, sets the session cookie and redirects to
// the local next path or the dashboard.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Render(w, r, http.StatusBadRequest, "login", &PageData{Title: "Log in"})
		return
	}
	email := r.PostForm.Get("email")
	next := auth.SafeNext(r.PostForm.Get("next"), "")

	result, err := h.svc.Login(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		h.render.Render(w, r, statusFor(err), "login", &PageData{
			Title:   "Log in",
			Email:   email,
			Next:    next,
			Flashes: []Flash{errorFlash(err, service.MsgInvalidCredentials)},
		})
		return
	}

	auth.SetSessionCookie(w, result.Token, h.secure)
	h.render.redirectWithFlash(w, r, auth.SafeNext(next, "/dashboard"), FlashSuccess, "Logged in successfully!")
}

// HandleLogout clears the session cookie.
//
// HTTP: GET /logout
//
// Sessions are stateless JWTs, so logging out only drops the cookie. The
// token itself stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secure)
	h.render.redirectWithFlash(w, r, "/", FlashInfo, "You have been logged out.")
}

// HandleDeleteAccount removes the current user and all of their links.
//
// HTTP: POST /account/delete
func (h *AuthHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	err := h.svc.DeleteAccount(r.Context(), userID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		h.render.ServerError(w, r, err)
		return
	}

	auth.ClearSessionCookie(w, h.secure)
	h.render.redirectWithFlash(w, r, "/", FlashInfo, "Your account has been deleted.")
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state is stored in a 10-minute cookie and checked on callback,
// which proves the callback was started by this server.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub profile
//  3. Find or create the account by email and issue a session
//  4. Redirect to the dashboard
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: invalid OAuth state")
		h.render.redirectWithFlash(w, r, "/login", FlashError, "GitHub sign-in failed. Please try again.")
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.render.redirectWithFlash(w, r, "/login", FlashInfo, "GitHub sign-in was cancelled.")
		return
	}

	// --- Step 2: Exchange code for GitHub profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		h.render.redirectWithFlash(w, r, "/login", FlashError, "GitHub sign-in failed. Please try again.")
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		h.render.redirectWithFlash(w, r, "/login", FlashError, "GitHub sign-in failed. Please try again.")
		return
	}

	// --- Step 3: Find or create the account ---
	result, err := h.svc.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		if isUserError(err) {
			h.render.redirectWithFlash(w, r, "/login", FlashError, apperror.MessageOf(err, ""))
			return
		}
		h.render.ServerError(w, r, err)
		return
	}

	// --- Step 4: Session cookie and redirect ---
	auth.SetSessionCookie(w, result.Token, h.secure)
	h.render.redirectWithFlash(w, r, "/dashboard", FlashSuccess, "Logged in successfully!")
}

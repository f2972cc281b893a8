package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/model"
)

// SessionCookie is the name of the cookie that carries the session token.
const SessionCookie = "session"

// contextKey is unexported so no other package can read or shadow the value.
type contextKey string

const userIDKey contextKey = "userID"

// UserLookup resolves the account behind a session token.
// *service.AuthService satisfies it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth guards pages that need a logged-in user. Anonymous requests
// are redirected to the login page with the original path in ?next=.
// A validly signed token whose account no longer exists counts as
// anonymous and its cookie is cleared.
func RequireAuth(tokens *TokenService, users UserLookup, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, tokens, users)
			switch {
			case err == nil:
			case errors.Is(err, apperror.ErrNotFound):
				ClearSessionCookie(w, secure)
				fallthrough
			case errors.Is(err, errNoSession):
				target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			default:
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth records the user ID when a valid session is present and lets
// anonymous requests through untouched. A session for a deleted account is
// cleared.
func OptionalAuth(tokens *TokenService, users UserLookup, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, tokens, users)
			switch {
			case err == nil:
				r = r.WithContext(WithUserID(r.Context(), userID))
			case errors.Is(err, apperror.ErrNotFound):
				ClearSessionCookie(w, secure)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// SetSessionCookie stores token in a browser-session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SafeNext returns next when it is a local path, and fallback otherwise.
// "//host" and "/\host" are rejected because browsers treat them as
// protocol-relative URLs.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// errNoSession means the request carries no usable session token.
var errNoSession = errors.New("no valid session")

// authenticate returns the user ID of a session whose account still exists.
func authenticate(r *http.Request, tokens *TokenService, users UserLookup) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", errNoSession
	}
	userID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return "", errNoSession
	}
	if _, err := users.GetUserByID(r.Context(), userID); err != nil {
		return "", err
	}
	return userID, nil
}

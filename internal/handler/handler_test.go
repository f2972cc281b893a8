package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/storelink/internal/auth"
	"github.com/sakif/storelink/internal/repository/sqlite"
	"github.com/sakif/storelink/internal/service"
	"github.com/sakif/storelink/web"
)

// =========================================================================
// TEST APP
// =========================================================================

// stubPreview never touches the network.
type stubPreview struct{}

func (stubPreview) Fetch(_ context.Context, url string) (string, string) {
	return "/static/img/default-preview.svg", "Preview of " + strings.TrimPrefix(url, "https://")
}

type testApp struct {
	router http.Handler
	db     *sqlite.DB
	auth   *service.AuthService
	links  *service.LinkService
}

// newTestApp wires the real services over an in-memory database and mounts
// the handlers the same way the server does.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-key", 0)
	require.NoError(t, err)

	authSvc := service.NewAuthService(db, tokens, auth.NewPasswordService(bcrypt.MinCost), logger)
	linkSvc := service.NewLinkService(db, stubPreview{}, logger)

	render, err := NewRenderer(web.FS, false, false, logger)
	require.NoError(t, err)

	pages := NewPageHandler(render, db, logger)
	authH := NewAuthHandler(authSvc, nil, render, false, logger)
	linkH := NewLinkHandler(linkSvc, render, logger)

	r := chi.NewRouter()
	r.NotFound(render.NotFound)
	r.Get("/healthz", pages.HandleHealth)
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens, authSvc, false))
		r.Get("/", pages.HandleLanding)
		r.Get("/signup", authH.HandleSignupForm)
		r.Post("/signup", authH.HandleSignup)
		r.Get("/login", authH.HandleLoginForm)
		r.Post("/login", authH.HandleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, authSvc, false))
		r.Get("/logout", authH.HandleLogout)
		r.Get("/dashboard", linkH.HandleDashboard)
		r.Post("/dashboard", linkH.HandleCreate)
		r.Get("/edit/{id}", linkH.HandleEditForm)
		r.Post("/edit/{id}", linkH.HandleUpdate)
		r.Post("/delete/{id}", linkH.HandleDelete)
		r.Post("/account/delete", authH.HandleDeleteAccount)
	})

	return &testApp{router: r, db: db, auth: authSvc, links: linkSvc}
}

// signup creates an account directly through the service and returns its
// user ID and session cookie.
func (a *testApp) signup(t *testing.T, email string) (string, *http.Cookie) {
	t.Helper()
	result, err := a.auth.Signup(context.Background(), email, "password123", "password123")
	require.NoError(t, err)
	return result.User.ID, &http.Cookie{Name: auth.SessionCookie, Value: result.Token}
}

// do sends a request through the router. A non-nil form is sent as a
// urlencoded POST body.
func (a *testApp) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

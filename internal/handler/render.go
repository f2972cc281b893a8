// Package handler contains the HTTP handlers for StoreLink's pages.
//
// Handlers are the glue between HTTP and the services: they parse forms,
// call a service, then either render a template or redirect. Business rules
// live in internal/service, never here.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/storelink/internal/auth"
	"github.com/sakif/storelink/internal/model"
)

// pages lists every template that can be rendered. Each is parsed together
// with base.html, which defines the layout and calls {{template "content"}}.
var pages = []string{"landing", "signup", "login", "dashboard", "edit", "404", "500"}

// PageData is the single value handed to every template.
type PageData struct {
	Title         string
	CurrentYear   int
	LoggedIn      bool
	GitHubEnabled bool
	Flashes       []Flash

	// form state
	Email string
	Next  string

	Groups []model.DayGroup
	Link   *model.Link
}

// Renderer owns the parsed templates. Templates are parsed once at startup.
type Renderer struct {
	templates     map[string]*template.Template
	githubEnabled bool
	secure        bool
	logger        *slog.Logger
	now           func() time.Time
}

// NewRenderer parses templates/base.html plus one file per page from fsys.
func NewRenderer(fsys fs.FS, githubEnabled, secureCookies bool, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		templates:     make(map[string]*template.Template, len(pages)),
		githubEnabled: githubEnabled,
		secure:        secureCookies,
		logger:        logger,
		now:           time.Now,
	}

	for _, page := range pages {
		tmpl, err := template.ParseFS(fsys, "templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Render executes page into a buffer first so a template error can still
// produce a clean 500 instead of a half-written page.
//
// Pending flash messages from the cookie are consumed here and shown ahead
// of any messages already in data.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	if data == nil {
		data = &PageData{}
	}
	tmpl, ok := rd.templates[page]
	if !ok {
		rd.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.CurrentYear = rd.now().UTC().Year()
	data.GitHubEnabled = rd.githubEnabled
	_, data.LoggedIn = auth.UserIDFromContext(r.Context())
	data.Flashes = append(popFlashes(w, r, rd.secure), data.Flashes...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("rendering template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// NotFound renders the 404 page. It doubles as the router's NotFound handler.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.Render(w, r, http.StatusNotFound, "404", &PageData{Title: "Not found"})
}

// ServerError logs err and renders the 500 page.
func (rd *Renderer) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	rd.logger.Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	rd.Render(w, r, http.StatusInternalServerError, "500", &PageData{Title: "Error"})
}

// redirectWithFlash queues a flash message and redirects with 303 so the
// browser follows with a GET.
func (rd *Renderer) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	setFlash(w, rd.secure, Flash{Kind: kind, Message: message})
	http.Redirect(w, r, url, http.StatusSeeOther)
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/auth"
	"github.com/sakif/storelink/internal/service"
)

// LinkHandler serves the dashboard and the edit and delete actions. Every
// route is behind RequireAuth, so a user ID is always on the context.
type LinkHandler struct {
	svc    *service.LinkService
	render *Renderer
	logger *slog.Logger
}

// NewLinkHandler creates a LinkHandler.
func NewLinkHandler(svc *service.LinkService, render *Renderer, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{svc: svc, render: render, logger: logger}
}

// HandleDashboard lists the user's links grouped by day.
//
// HTTP: GET /dashboard
func (h *LinkHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	groups, err := h.svc.Dashboard(r.Context(), userID)
	if err != nil {
		h.render.ServerError(w, r, err)
		return
	}

	h.render.Render(w, r, http.StatusOK, "dashboard", &PageData{
		Title:  "Dashboard",
		Groups: groups,
	})
}

// HandleCreate saves a new link. Success and failure both end in a redirect
// back to the dashboard carrying a flash message.
//
// HTTP: POST /dashboard
func (h *LinkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.render.redirectWithFlash(w, r, "/dashboard", FlashError, "Please enter a valid URL.")
		return
	}

	_, err := h.svc.Create(r.Context(), userID, r.PostForm.Get("url"), r.PostForm.Get("comment"))
	if err != nil {
		h.render.redirectWithFlash(w, r, "/dashboard", FlashError, apperror.MessageOf(err, service.MsgCreateFailed))
		return
	}

	h.render.redirectWithFlash(w, r, "/dashboard", FlashSuccess, "Link added successfully!")
}

// HandleEditForm shows the edit form for an owned link. Links owned by
// someone else get the same 404 as missing ones.
//
// HTTP: GET /edit/{id}
func (h *LinkHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	link, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render.Render(w, r, http.StatusOK, "edit", &PageData{Title: "Edit link", Link: link})
}

// HandleUpdate applies an edit.
//
// HTTP: POST /edit/{id}
//
// A rejected URL re-renders the form with the stored values and a 400.
func (h *LinkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	_, err := h.svc.Update(r.Context(), id, userID, r.PostForm.Get("url"), r.PostForm.Get("comment"))
	switch {
	case err == nil:
		h.render.redirectWithFlash(w, r, "/dashboard", FlashSuccess, "Link updated successfully!")
	case errors.Is(err, apperror.ErrNotFound):
		h.render.NotFound(w, r)
	default:
		link, getErr := h.svc.Get(r.Context(), id, userID)
		if getErr != nil {
			h.fail(w, r, getErr)
			return
		}
		h.render.Render(w, r, statusFor(err), "edit", &PageData{
			Title:   "Edit link",
			Link:    link,
			Flashes: []Flash{errorFlash(err, service.MsgUpdateFailed)},
		})
	}
}

// HandleDelete removes an owned link.
//
// HTTP: POST /delete/{id}
func (h *LinkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID)
	switch {
	case err == nil:
		h.render.redirectWithFlash(w, r, "/dashboard", FlashSuccess, "Link deleted successfully!")
	case errors.Is(err, apperror.ErrNotFound):
		h.render.NotFound(w, r)
	default:
		h.render.redirectWithFlash(w, r, "/dashboard", FlashError, apperror.MessageOf(err, service.MsgDeleteFailed))
	}
}

// fail renders the 404 page for not-found errors and the 500 page otherwise.
func (h *LinkHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperror.ErrNotFound) {
		h.render.NotFound(w, r)
		return
	}
	h.render.ServerError(w, r, err)
}

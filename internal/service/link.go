// Package service contains the business logic of StoreLink.
//
// The layering follows the usual three tiers:
//
//	Handler (HTTP)  → parses forms, renders pages, sets cookies
//	Service         → validates, enforces ownership, orchestrates
//	Repository      → reads and writes SQLite
//
// Services take repository interfaces, not *sqlite.DB, so the tests in this
// package run against in-memory fakes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/metrics"
	"github.com/sakif/storelink/internal/model"
	"github.com/sakif/storelink/internal/repository"
	"github.com/sakif/storelink/internal/validation"
)

// User-facing messages for failed writes. The underlying cause is logged.
const (
	MsgCreateFailed = "An error occurred while adding the link."
	MsgUpdateFailed = "An error occurred while updating the link."
	MsgDeleteFailed = "An error occurred while deleting the link."
	MsgListFailed   = "An error occurred while loading your links."
)

// PreviewFetcher resolves the preview image and title of a page. It must not
// fail: problems are reported through fallback values.
type PreviewFetcher interface {
	Fetch(ctx context.Context, url string) (imageURL, title string)
}

// LinkService manages a user's saved links.
type LinkService struct {
	repo    repository.LinkRepository
	preview PreviewFetcher
	logger  *slog.Logger
	now     func() time.Time
}

// NewLinkService creates a LinkService.
func NewLinkService(repo repository.LinkRepository, preview PreviewFetcher, logger *slog.Logger) *LinkService {
	return &LinkService{
		repo:    repo,
		preview: preview,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates rawURL, resolves its preview and saves the link for
// ownerID.
//
// The preview is fetched before anything touches the database, so a slow
// site never holds a transaction open.
func (s *LinkService) Create(ctx context.Context, ownerID, rawURL, comment string) (*model.Link, error) {
	url, comment, err := cleanLinkInput(rawURL, comment)
	if err != nil {
		return nil, err
	}

	imageURL, title := s.preview.Fetch(ctx, url)

	link := &model.Link{
		UserID:     ownerID,
		URL:        url,
		Title:      title,
		PreviewURL: imageURL,
		Comment:    comment,
		CreatedAt:  s.now().UTC(),
	}

	err = s.repo.CreateLink(ctx, link)
	metrics.ObserveLinkMutation("create", err)
	if err != nil {
		return nil, s.persistenceError("create", MsgCreateFailed, err,
			slog.String("userID", ownerID), slog.String("url", url))
	}

	s.logger.Info("link created",
		slog.String("id", link.ID),
		slog.String("userID", ownerID),
	)
	return link, nil
}

// Get returns the link with id when ownerID owns it.
func (s *LinkService) Get(ctx context.Context, id, ownerID string) (*model.Link, error) {
	link, err := s.repo.GetLink(ctx, id, ownerID)
	if err != nil {
		return nil, s.persistenceError("get", MsgListFailed, err, slog.String("id", id))
	}
	return link, nil
}

// Update replaces the URL and comment of an owned link.
//
// Metadata is fetched again only when the normalized URL differs from the
// stored one. A comment-only edit keeps the old title and preview.
func (s *LinkService) Update(ctx context.Context, id, ownerID, rawURL, comment string) (*model.Link, error) {
	link, err := s.repo.GetLink(ctx, id, ownerID)
	if err != nil {
		return nil, s.persistenceError("update", MsgUpdateFailed, err, slog.String("id", id))
	}

	url, comment, err := cleanLinkInput(rawURL, comment)
	if err != nil {
		return nil, err
	}

	if url != link.URL {
		link.PreviewURL, link.Title = s.preview.Fetch(ctx, url)
		link.URL = url
	}
	link.Comment = comment

	err = s.repo.UpdateLink(ctx, link)
	metrics.ObserveLinkMutation("update", err)
	if err != nil {
		return nil, s.persistenceError("update", MsgUpdateFailed, err, slog.String("id", id))
	}

	s.logger.Info("link updated", slog.String("id", id), slog.String("userID", ownerID))
	return link, nil
}

// Delete removes an owned link.
func (s *LinkService) Delete(ctx context.Context, id, ownerID string) error {
	err := s.repo.DeleteLink(ctx, id, ownerID)
	metrics.ObserveLinkMutation("delete", err)
	if err != nil {
		return s.persistenceError("delete", MsgDeleteFailed, err, slog.String("id", id))
	}

	s.logger.Info("link deleted", slog.String("id", id), slog.String("userID", ownerID))
	return nil
}

// ListByOwner returns ownerID's links, newest first.
func (s *LinkService) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	links, err := s.repo.ListLinks(ctx, ownerID)
	if err != nil {
		return nil, s.persistenceError("list", MsgListFailed, err, slog.String("userID", ownerID))
	}
	return links, nil
}

// Dashboard returns ownerID's links grouped by the day they were saved.
func (s *LinkService) Dashboard(ctx context.Context, ownerID string) ([]model.DayGroup, error) {
	links, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return GroupByDate(links), nil
}

// cleanLinkInput trims, validates and normalizes the link form.
func cleanLinkInput(rawURL, comment string) (string, string, error) {
	form := validation.LinkForm{
		URL:     strings.TrimSpace(rawURL),
		Comment: strings.TrimSpace(comment),
	}
	if err := validation.Struct(form); err != nil {
		return "", "", err
	}
	return validation.NormalizeURL(form.URL), form.Comment, nil
}

// persistenceError passes domain errors (not found, validation) through and
// turns anything else into a generic PersistenceFailed, logging the cause.
func (s *LinkService) persistenceError(op, message string, err error, attrs ...any) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrPersistence) {
		return err
	}

	s.logger.Error("link store failure",
		append([]any{slog.String("op", op), slog.String("error", err.Error())}, attrs...)...,
	)
	return apperror.PersistenceFailed(message, err)
}

// Package repository declares the storage interfaces the services depend on.
// The sqlite subpackage is the only implementation.
package repository

import (
	"context"

	"github.com/sakif/storelink/internal/model"
)

// UserRepository stores accounts.
type UserRepository interface {
	// Create inserts a user. A duplicate email yields apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// DeleteUser removes the user and all of their links in one transaction.
	DeleteUser(ctx context.Context, id string) error
}

// LinkRepository stores bookmarks. Every method is scoped to an owner: a
// link that exists but belongs to someone else is reported as not found.
type LinkRepository interface {
	CreateLink(ctx context.Context, link *model.Link) error
	GetLink(ctx context.Context, id, ownerID string) (*model.Link, error)
	ListLinks(ctx context.Context, ownerID string) ([]model.Link, error)
	UpdateLink(ctx context.Context, link *model.Link) error
	DeleteLink(ctx context.Context, id, ownerID string) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

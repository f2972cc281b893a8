package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository keyed by ID.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[string]*model.User
	nextID  int
	deleted []string

	// set to a non-nil error to simulate a database failure
	createErr error
	lookupErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("email", "Email already registered.")
		}
	}
	user.ID = "user-" + strconv.Itoa(f.nextID)
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeLinkRepo is an in-memory repository.LinkRepository. seq records
// insertion order for the newest-first tie break.
type fakeLinkRepo struct {
	mu     sync.Mutex
	links  map[string]*model.Link
	seq    map[string]int
	nextID int

	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{
		links:  make(map[string]*model.Link),
		seq:    make(map[string]int),
		nextID: 1,
	}
}

func (f *fakeLinkRepo) CreateLink(_ context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	link.ID = "link-" + strconv.Itoa(f.nextID)
	f.seq[link.ID] = f.nextID
	f.nextID++
	copied := *link
	f.links[link.ID] = &copied
	return nil
}

func (f *fakeLinkRepo) GetLink(_ context.Context, id, ownerID string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok || l.UserID != ownerID {
		return nil, apperror.NotFound("link", id)
	}
	copied := *l
	return &copied, nil
}

func (f *fakeLinkRepo) ListLinks(_ context.Context, ownerID string) ([]model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Link, 0)
	for _, l := range f.links {
		if l.UserID == ownerID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return f.seq[out[i].ID] > f.seq[out[j].ID]
	})
	return out, nil
}

func (f *fakeLinkRepo) UpdateLink(_ context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	l, ok := f.links[link.ID]
	if !ok || l.UserID != link.UserID {
		return apperror.NotFound("link", link.ID)
	}
	copied := *link
	f.links[link.ID] = &copied
	return nil
}

func (f *fakeLinkRepo) DeleteLink(_ context.Context, id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	l, ok := f.links[id]
	if !ok || l.UserID != ownerID {
		return apperror.NotFound("link", id)
	}
	delete(f.links, id)
	return nil
}

// fakePreview returns canned metadata and counts calls.
type fakePreview struct {
	mu    sync.Mutex
	calls []string
	image string
	title string
}

func (f *fakePreview) Fetch(_ context.Context, url string) (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	title := f.title
	if title == "" {
		title = url
	}
	image := f.image
	if image == "" {
		image = "/static/img/default-preview.svg"
	}
	return image, title
}

func (f *fakePreview) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

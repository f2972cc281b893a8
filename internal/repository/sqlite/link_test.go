package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateLink(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")

	at := time.Date(2025, 1, 1, 12, 30, 0, 0, time.UTC)
	link := createTestLink(t, db, owner.ID, "https://example.com", at)

	if link.ID == "" {
		t.Error("CreateLink() did not set link.ID")
	}

	found, err := db.GetLink(context.Background(), link.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetLink() error = %v", err)
	}
	if found.URL != "https://example.com" {
		t.Errorf("URL = %q, want %q", found.URL, "https://example.com")
	}
	if !found.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, at)
	}
	if found.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", found.CreatedAt.Location())
	}
}

func TestCreateLink_UnknownOwnerFails(t *testing.T) {
	db := newTestDB(t)

	link := &model.Link{UserID: "ghost", URL: "https://x.example", Title: "x", PreviewURL: "p"}
	if err := db.CreateLink(context.Background(), link); err == nil {
		t.Fatal("CreateLink() should fail when the owner does not exist (foreign key)")
	}

	links, err := db.ListLinks(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	if len(links) != 0 {
		t.Errorf("rolled-back insert left %d rows", len(links))
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListLinks_Empty(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")

	links, err := db.ListLinks(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	if links == nil || len(links) != 0 {
		t.Errorf("ListLinks() = %v, want empty non-nil slice", links)
	}
}

func TestListLinks_NewestFirstAndOwnerScoped(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")

	base := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	oldest := createTestLink(t, db, owner.ID, "https://1.example", base)
	newest := createTestLink(t, db, owner.ID, "https://3.example", base.Add(48*time.Hour))
	middle := createTestLink(t, db, owner.ID, "https://2.example", base.Add(2*time.Hour))
	createTestLink(t, db, other.ID, "https://foreign.example", base.Add(time.Hour))

	links, err := db.ListLinks(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}

	want := []string{newest.ID, middle.ID, oldest.ID}
	if len(links) != len(want) {
		t.Fatalf("ListLinks() returned %d links, want %d", len(links), len(want))
	}
	for i, id := range want {
		if links[i].ID != id {
			t.Errorf("links[%d].ID = %q, want %q", i, links[i].ID, id)
		}
	}
}

func TestListLinks_SameInstantNewestInsertFirst(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")

	at := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	first := createTestLink(t, db, owner.ID, "https://first.example", at)
	second := createTestLink(t, db, owner.ID, "https://second.example", at)

	links, err := db.ListLinks(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("ListLinks() error = %v", err)
	}
	if len(links) != 2 || links[0].ID != second.ID || links[1].ID != first.ID {
		t.Errorf("tie order = [%s %s], want [%s %s]", links[0].ID, links[1].ID, second.ID, first.ID)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateLink(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	at := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	link := createTestLink(t, db, owner.ID, "https://old.example", at)

	link.URL = "https://new.example"
	link.Title = "New"
	link.Comment = "updated"
	if err := db.UpdateLink(context.Background(), link); err != nil {
		t.Fatalf("UpdateLink() error = %v", err)
	}

	found, err := db.GetLink(context.Background(), link.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetLink() after update error = %v", err)
	}
	if found.URL != "https://new.example" || found.Title != "New" || found.Comment != "updated" {
		t.Errorf("after update got %+v", found)
	}
	if !found.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt changed on update: %v, want %v", found.CreatedAt, at)
	}
}

func TestUpdateLink_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	intruder := createTestUser(t, db, "intruder@example.com")
	link := createTestLink(t, db, owner.ID, "https://mine.example", time.Now())

	hijack := *link
	hijack.UserID = intruder.ID
	hijack.URL = "https://evil.example"

	err := db.UpdateLink(context.Background(), &hijack)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("UpdateLink() error = %v, want ErrNotFound", err)
	}

	found, err := db.GetLink(context.Background(), link.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetLink() error = %v", err)
	}
	if found.URL != "https://mine.example" {
		t.Errorf("foreign update mutated URL to %q", found.URL)
	}
}

// =========================================================================
// GET / DELETE TESTS
// =========================================================================

func TestGetLink_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	intruder := createTestUser(t, db, "intruder@example.com")
	link := createTestLink(t, db, owner.ID, "https://mine.example", time.Now())

	_, err := db.GetLink(context.Background(), link.ID, intruder.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetLink() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteLink(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	link := createTestLink(t, db, owner.ID, "https://bye.example", time.Now())

	if err := db.DeleteLink(context.Background(), link.ID, owner.ID); err != nil {
		t.Fatalf("DeleteLink() error = %v", err)
	}

	_, err := db.GetLink(context.Background(), link.ID, owner.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetLink() after delete: error = %v, want ErrNotFound", err)
	}
}

func TestDeleteLink_OtherOwnerIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	intruder := createTestUser(t, db, "intruder@example.com")
	link := createTestLink(t, db, owner.ID, "https://mine.example", time.Now())

	err := db.DeleteLink(context.Background(), link.ID, intruder.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("DeleteLink() error = %v, want ErrNotFound", err)
	}

	if _, err := db.GetLink(context.Background(), link.ID, owner.ID); err != nil {
		t.Errorf("link should still exist, got %v", err)
	}
}

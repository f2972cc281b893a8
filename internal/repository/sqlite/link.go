package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/storelink/internal/apperror"
	"github.com/sakif/storelink/internal/model"
	"github.com/sakif/storelink/internal/repository"
)

var _ repository.LinkRepository = (*DB)(nil)

const linkColumns = `id, user_id, url, title, preview_url, comment, created_at`

// CreateLink inserts a new link. The ID is generated here; CreatedAt is kept
// when the caller already set it.
func (db *DB) CreateLink(ctx context.Context, link *model.Link) error {
	link.ID = xid.New().String()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	link.CreatedAt = link.CreatedAt.UTC()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO links (`+linkColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			link.ID,
			link.UserID,
			link.URL,
			link.Title,
			link.PreviewURL,
			link.Comment,
			link.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating link: %w", err)
		}
		return nil
	})
}

// GetLink returns the link with id when it belongs to ownerID.
func (db *DB) GetLink(ctx context.Context, id, ownerID string) (*model.Link, error) {
	var l model.Link

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+linkColumns+`
		 FROM links
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	).Scan(&l.ID, &l.UserID, &l.URL, &l.Title, &l.PreviewURL, &l.Comment, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("link", id)
		}
		return nil, fmt.Errorf("sqlite: getting link %s: %w", id, err)
	}

	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}

// ListLinks returns all of ownerID's links, newest first. Links saved in the
// same instant keep insertion order, newest first.
func (db *DB) ListLinks(ctx context.Context, ownerID string) ([]model.Link, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+linkColumns+`
		 FROM links
		 WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing links: %w", err)
	}
	defer rows.Close()

	links := make([]model.Link, 0)
	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.ID, &l.UserID, &l.URL, &l.Title, &l.PreviewURL, &l.Comment, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning link row: %w", err)
		}
		l.CreatedAt = l.CreatedAt.UTC()
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating links: %w", err)
	}

	return links, nil
}

// UpdateLink rewrites the mutable fields of a link. created_at is never
// touched. The WHERE clause includes the owner, so a foreign link is
// reported as not found and left unchanged.
func (db *DB) UpdateLink(ctx context.Context, link *model.Link) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE links
			 SET url = ?, title = ?, preview_url = ?, comment = ?
			 WHERE id = ? AND user_id = ?`,
			link.URL,
			link.Title,
			link.PreviewURL,
			link.Comment,
			link.ID,
			link.UserID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating link %s: %w", link.ID, err)
		}
		return requireOneRow(result, "link", link.ID)
	})
}

// DeleteLink permanently removes one of ownerID's links.
func (db *DB) DeleteLink(ctx context.Context, id, ownerID string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM links WHERE id = ? AND user_id = ?`,
			id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: deleting link %s: %w", id, err)
		}
		return requireOneRow(result, "link", id)
	})
}

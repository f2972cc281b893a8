package model

import "time"

// Link is one saved bookmark.
//
// URL always carries an explicit http/https scheme. Title and PreviewURL are
// never empty: when the page preview cannot be fetched they fall back to the
// URL itself and the default preview image.
type Link struct {
	ID         string    `json:"id"         db:"id"`
	UserID     string    `json:"userId"     db:"user_id"`
	URL        string    `json:"url"        db:"url"`
	Title      string    `json:"title"      db:"title"`
	PreviewURL string    `json:"previewUrl" db:"preview_url"`
	Comment    string    `json:"comment"    db:"comment"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}

// DayGroup is one dashboard bucket: the links saved on a single UTC day.
type DayGroup struct {
	Label string // DD.MM.YYYY
	Links []Link
}

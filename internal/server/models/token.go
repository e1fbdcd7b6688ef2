package models

import "time"

type DownloadToken struct {
	ID         string
	TokenValue string
	UserID     string
	ContentID  string
	Format     string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// ValidAt reports whether the token may still be resolved at now.
func (t *DownloadToken) ValidAt(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// Resolution is a resolved token joined with the content's file reference.
type Resolution struct {
	TokenID   string
	UserID    string
	ContentID string
	Format    string
	FileRef   string
	ExpiresAt time.Time
}

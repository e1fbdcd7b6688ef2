// Package models defines client-side data models used by the gophstore CLI.
package models

import "time"

// Ownership is one entry of the user's library as reported by the store.
type Ownership struct {
	ContentID string

	// PurchasePrice is in minor units of the store currency.
	PurchasePrice int64
	PurchaseDate  time.Time

	DownloadCount  int64
	LastDownloadAt *time.Time
}

// Download is a completed transfer kept in the local library.
type Download struct {
	ContentID    string
	Format       string
	Path         string
	FileRef      string
	Bytes        int64
	Digest       string
	DownloadedAt time.Time
}

// IssuedToken is a download token the client holds. Tokens are reusable
// until ExpiresAt, so they are remembered between runs.
type IssuedToken struct {
	Token     string
	ContentID string
	Format    string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its validity at now.
func (t IssuedToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

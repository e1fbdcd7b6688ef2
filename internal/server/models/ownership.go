package models

import "time"

// Ownership is the durable right of a user to a content item. There is at
// most one per (UserID, ContentID) and it is never deleted.
type Ownership struct {
	UserID         string
	ContentID      string
	PurchasePrice  int64
	PurchaseDate   time.Time
	DownloadCount  int64
	LastDownloadAt *time.Time
}

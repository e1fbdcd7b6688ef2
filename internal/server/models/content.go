// Package models defines server-side data models persisted in the database.
package models

// ContentItem is the catalog's view of a sellable item. The catalog owns
// these rows; the store only reads price, status and FileRef and bumps
// DownloadCount.
type ContentItem struct {
	ID    string
	Title string
	// Price is in minor units of Currency (cents for usd).
	Price    int64
	Currency string
	// FileRef is a bucket key or an absolute URL understood by file hosting.
	FileRef       string
	Purchasable   bool
	DownloadCount int64
}

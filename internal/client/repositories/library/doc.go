// Package library is the client's local record of what it has downloaded.
//
// Download tokens stay valid for a day and may be resolved many times, so
// the CLI keeps them here and reuses a live one instead of asking the store
// again. Completed transfers are recorded with their path and digest.
//
// SQLiteRepository works over a dbx.DBTX, so it runs equally on *sql.DB
// and inside a transaction.
package library

// Package common contains shared constants and sentinel errors used across
// gophstore components.
package common

import "time"

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DownloadTokenValidity is how long an issued download token resolves.
const DownloadTokenValidity = 24 * time.Hour

// DownloadTokenBytes is the entropy of a download token value (256 bits).
const DownloadTokenBytes = 32

// StoreServiceName is the fully qualified gRPC service served by the store.
const StoreServiceName = "gophstore.v1.StoreService"

// StoreMethod returns the full gRPC method path for name.
func StoreMethod(name string) string {
	return "/" + StoreServiceName + "/" + name
}

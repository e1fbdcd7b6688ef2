// Package client talks to the gophstore backend over gRPC.
//
// # Overview
//
// GRPCClient invokes the gophstore.v1.StoreService methods with structpb
// messages, so no generated stubs are involved. It injects the access token
// through a unary interceptor and implements purchase.Backend, plus
// ListOwnerships and Ping for the CLI.
//
// # Error Handling
//
// The store puts the text of a domain error in the status message. The client
// maps it back with common.FromMessage so callers can match it with errors.Is.
// Unavailable and DeadlineExceeded statuses that carry no domain error become
// common.ErrServiceUnavailable.
package client

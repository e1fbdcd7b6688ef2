// Package cli provides the gophstore command-line client.
//
// The root command binds the client configuration flags and builds an App
// holding the store client, the transferer and the local library. The buy
// command drives a purchase.Orchestrator session, rendering each transition
// and offering the retry action on retryable errors. download re-fetches
// content the user already owns, reusing a live download token from the
// library when there is one.
package cli

package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for the gophstore client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the store gRPC endpoint.
//   - HTTPBaseURL: base URL of the store HTTP endpoint, used to resolve tokens.
//   - AccessToken: identity token sent with every purchase call.
//   - DownloadDir: where delivered files are written.
//   - LibraryDBPath: SQLite file recording tokens and completed downloads.
//   - RetryAttempts, RetryBaseDelay: backoff for retryable failures.
//   - RequestTimeout: per-call deadline for backend requests.
type Config struct {
	ServerEndpointAddr string
	HTTPBaseURL        string
	AccessToken        string
	DownloadDir        string
	LibraryDBPath      string
	RetryAttempts      int
	RetryBaseDelay     time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.HTTPBaseURL = "http://127.0.0.1:8080"
	c.AccessToken = ""
	c.DownloadDir = "downloads"
	c.LibraryDBPath = "gophstore.db"
	c.RetryAttempts = 3
	c.RetryBaseDelay = 500 * time.Millisecond
	c.RequestTimeout = 30 * time.Second
}

func (c *Config) Validate() error {
	if c.ServerEndpointAddr == "" {
		return errors.New("config: server endpoint is required")
	}
	if c.RetryAttempts < 1 {
		return errors.New("config: retry attempts must be at least 1")
	}
	if c.RetryBaseDelay <= 0 {
		return errors.New("config: retry base delay must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request timeout must be positive")
	}
	return nil
}

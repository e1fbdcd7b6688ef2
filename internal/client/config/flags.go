package config

import (
	"os"

	"github.com/spf13/pflag"
)

const (
	flagConfig     = "config"
	flagServer     = "server"
	flagHTTP       = "http"
	flagToken      = "token"
	flagDir        = "dir"
	flagLibrary    = "library"
	flagRetries    = "retries"
	flagRetryDelay = "retry-delay"
	flagTimeout    = "timeout"

	// TokenEnv is consulted when no access token is configured.
	TokenEnv = "GOPHSTORE_TOKEN"
)

// BindFlags registers the client flags on fs, writing into c. Call
// c.LoadDefaults first so the defaults show up in help output.
//
// Supported flags:
//
//	-c, --config string        JSON or YAML config file
//	-a, --server string        store gRPC address
//	    --http string          store HTTP base URL
//	-t, --token string         access token (falls back to $GOPHSTORE_TOKEN)
//	-o, --dir string           download directory
//	    --library string       library database path
//	    --retries int          attempts for retryable failures
//	    --retry-delay duration first backoff delay
//	    --timeout duration     per-request timeout
func BindFlags(fs *pflag.FlagSet, c *Config) {
	fs.StringP(flagConfig, "c", "", "config file (JSON or YAML)")
	fs.StringVarP(&c.ServerEndpointAddr, flagServer, "a", c.ServerEndpointAddr, "store gRPC address")
	fs.StringVar(&c.HTTPBaseURL, flagHTTP, c.HTTPBaseURL, "store HTTP base URL")
	fs.StringVarP(&c.AccessToken, flagToken, "t", c.AccessToken, "access token (default $"+TokenEnv+")")
	fs.StringVarP(&c.DownloadDir, flagDir, "o", c.DownloadDir, "download directory")
	fs.StringVar(&c.LibraryDBPath, flagLibrary, c.LibraryDBPath, "library database path")
	fs.IntVar(&c.RetryAttempts, flagRetries, c.RetryAttempts, "attempts for retryable failures")
	fs.DurationVar(&c.RetryBaseDelay, flagRetryDelay, c.RetryBaseDelay, "first backoff delay")
	fs.DurationVar(&c.RequestTimeout, flagTimeout, c.RequestTimeout, "per-request timeout")
}

// Finalize overlays the config file named by --config underneath any
// explicitly set flags, applies the token environment fallback and
// validates the result. fs must already be parsed.
func Finalize(fs *pflag.FlagSet, c *Config) error {
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	if path, _ := fs.GetString(flagConfig); path != "" {
		if err := applyFile(c, path, changed); err != nil {
			return err
		}
	}

	if c.AccessToken == "" {
		c.AccessToken = os.Getenv(TokenEnv)
	}

	return c.Validate()
}

package config

import (
	"github.com/dmitrijs2005/gophstore/internal/flagx"
	"github.com/dmitrijs2005/gophstore/internal/timex"
)

// FileConfig is the on-disk shape of the client configuration. Durations
// accept "500ms" style strings or integer nanoseconds.
type FileConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	HTTPBaseURL        *string         `json:"http_base_url" yaml:"http_base_url"`
	AccessToken        *string         `json:"access_token" yaml:"access_token"`
	DownloadDir        *string         `json:"download_dir" yaml:"download_dir"`
	LibraryDBPath      *string         `json:"library_db_path" yaml:"library_db_path"`
	RetryAttempts      *int            `json:"retry_attempts" yaml:"retry_attempts"`
	RetryBaseDelay     *timex.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
	RequestTimeout     *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// applyFile overlays the values from path onto c. Fields for which keep
// reports true were set explicitly on the command line and win over the file.
func applyFile(c *Config, path string, keep func(flagName string) bool) error {
	fc := &FileConfig{}
	if err := flagx.DecodeConfigFile(path, fc); err != nil {
		return err
	}

	if fc.ServerEndpointAddr != nil && !keep(flagServer) {
		c.ServerEndpointAddr = *fc.ServerEndpointAddr
	}
	if fc.HTTPBaseURL != nil && !keep(flagHTTP) {
		c.HTTPBaseURL = *fc.HTTPBaseURL
	}
	if fc.AccessToken != nil && !keep(flagToken) {
		c.AccessToken = *fc.AccessToken
	}
	if fc.DownloadDir != nil && !keep(flagDir) {
		c.DownloadDir = *fc.DownloadDir
	}
	if fc.LibraryDBPath != nil && !keep(flagLibrary) {
		c.LibraryDBPath = *fc.LibraryDBPath
	}
	if fc.RetryAttempts != nil && !keep(flagRetries) {
		c.RetryAttempts = *fc.RetryAttempts
	}
	if fc.RetryBaseDelay != nil && !keep(flagRetryDelay) {
		c.RetryBaseDelay = fc.RetryBaseDelay.Duration
	}
	if fc.RequestTimeout != nil && !keep(flagTimeout) {
		c.RequestTimeout = fc.RequestTimeout.Duration
	}
	return nil
}

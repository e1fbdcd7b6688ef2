// Package config handles configuration for the store server: defaults,
// an optional JSON or YAML file overlay, and command-line flags.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the store server.
//
// Empty DatabaseDSN selects in-memory storage, empty S3Bucket serves
// fileRefs as they are, empty RedisAddr disables the token cache and empty
// KafkaBrokers disables the affiliate notifications. The payment gateway
// has no silent fallback: either GatewayBaseURL is set or GatewaySimulated
// explicitly enables the in-process gateway that settles every intent.
type Config struct {
	EndpointAddrGRPC string
	EndpointAddrHTTP string
	DatabaseDSN      string
	SecretKey        string
	LogLevel         string
	CatalogFile      string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3PresignTTL   time.Duration

	GatewayBaseURL   string
	GatewaySecretKey string
	GatewayTimeout   time.Duration
	GatewaySimulated bool
	Currency         string

	DownloadTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key default is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.LogLevel = "info"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PresignTTL = 15 * time.Minute
	c.GatewayBaseURL = ""
	c.GatewaySecretKey = ""
	c.GatewayTimeout = 10 * time.Second
	c.GatewaySimulated = false
	c.Currency = "usd"
	c.DownloadTokenTTL = 24 * time.Hour
	c.RedisAddr = ""
	c.KafkaBrokers = nil
	c.KafkaTopic = "affiliate.payments"
}

// Validate reports settings that would make the server misbehave.
func (c *Config) Validate() error {
	if c.EndpointAddrGRPC == "" && c.EndpointAddrHTTP == "" {
		return fmt.Errorf("config: at least one of the gRPC or HTTP addresses is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("config: secret key is required")
	}
	if c.DownloadTokenTTL <= 0 {
		return fmt.Errorf("config: download token ttl must be positive")
	}
	if c.GatewayBaseURL == "" && !c.GatewaySimulated {
		return fmt.Errorf("config: payment gateway URL is required unless the simulated gateway is enabled")
	}
	if c.GatewayBaseURL != "" && c.GatewaySimulated {
		return fmt.Errorf("config: payment gateway URL and the simulated gateway are mutually exclusive")
	}
	if c.GatewaySimulated && c.DatabaseDSN != "" {
		return fmt.Errorf("config: the simulated gateway cannot be used with a database")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("config: gateway timeout must be positive")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("config: currency %q is not an ISO 4217 code", c.Currency)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
